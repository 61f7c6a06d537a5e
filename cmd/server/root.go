package main

import (
	"os"

	"govhub/internal/config"
	"govhub/internal/db"
	"govhub/internal/logger"

	"github.com/spf13/cobra"
)

// rootCmd 不带子命令时启动 HTTP 服务
var rootCmd = &cobra.Command{
	Use:   "govhub",
	Short: "Community governance portal API server",
	Long: `GovHub serves the community governance API: proposals, workgroups,
quarterly reports and the consensus voting process.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute 由 main 调用
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, expireCmd)
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err := db.Init(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
