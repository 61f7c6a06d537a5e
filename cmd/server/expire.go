package main

import (
	"fmt"
	"time"

	"govhub/internal/services"

	"github.com/spf13/cobra"
)

// expireCmd 与 /api/cron/expire 相同的过期任务，供系统 cron 直接调用
var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire overdue proposals and close stale voting rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		result, err := services.RunExpiry(cmd.Context(), time.Now(), cfg.RoundDuration)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired proposals: %d\nclosed rounds: %d\n", result.ExpiredProposals, result.ClosedRounds)
		return nil
	},
}
