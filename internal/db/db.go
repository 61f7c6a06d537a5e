package db

import (
	"fmt"
	"strings"
	"time"

	"govhub/internal/config"
	"govhub/internal/logger"
	"govhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 连接数据库并执行迁移
func Init(cfg *config.Config) error {
	conn, err := Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = conn
	logger.Log.Info("Database connection established")

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Log.Info("Database migration completed")
	return nil
}

// Open 以 sqlite: 开头的 DSN 使用 SQLite，其余按 Postgres 处理
func Open(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logger.Log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		gcfg.DisableForeignKeyConstraintWhenMigrating = true
		conn, err := gorm.Open(sqlite.Open(path), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		// SQLite 单写者
		sqlDB.SetMaxOpenConns(1)
		return conn, nil
	}

	conn, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return conn, nil
}

// OpenMemory 打开一个独立的内存 SQLite 库并完成迁移
func OpenMemory() (*gorm.DB, error) {
	conn, err := Open("sqlite:file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate 建表并创建额外索引
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.WorkGroup{},
		&models.WorkGroupMember{},
		&models.Report{},
		&models.BudgetItem{},
		&models.VotingRound{},
		&models.Vote{},
		&models.Objection{},
		&models.Comment{},
		&models.Proposal{},
		&models.ProposalVote{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	indexes := []string{
		// 每个报告最多一个进行中的轮次
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_round ON voting_rounds (report_id) WHERE status = 'ACTIVA'",
		"CREATE INDEX IF NOT EXISTS idx_votes_round_type ON votes (round_id, vote_type)",
		"CREATE INDEX IF NOT EXISTS idx_objections_status ON objections (status)",
	}
	for _, stmt := range indexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
