package main

import (
	"govhub/internal/logger"

	"github.com/spf13/cobra"
)

// migrateCmd 只执行数据库迁移
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		logger.Log.Info("Database migrations completed successfully")
		return nil
	},
}
