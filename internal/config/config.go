package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"govhub/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env     string
	Port    string
	SiteURL string

	DatabaseURL   string
	SessionSecret string

	DiscordClientID      string
	DiscordClientSecret  string
	DiscordAPIURL        string
	SuperAdminDiscordIDs []string

	BlobAPIURL     string
	BlobToken      string
	MaxUploadBytes int64

	CronSecret string

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	MinVoteCommentLength int
	ProposalDuration     time.Duration
	RoundDuration        time.Duration
}

var current *Config

// Load 读取 .env 与环境变量
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// 此时全局日志仍为默认配置，Init 在 Load 之后执行
		logger.Log.Info("No .env file found, finding env vars from system")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:     v.GetString("ENV"),
		Port:    v.GetString("PORT"),
		SiteURL: strings.TrimRight(v.GetString("SITE_URL"), "/"),

		DatabaseURL:   v.GetString("DATABASE_URL"),
		SessionSecret: v.GetString("SESSION_SECRET"),

		DiscordClientID:      v.GetString("DISCORD_CLIENT_ID"),
		DiscordClientSecret:  v.GetString("DISCORD_CLIENT_SECRET"),
		DiscordAPIURL:        strings.TrimRight(v.GetString("DISCORD_API_URL"), "/"),
		SuperAdminDiscordIDs: splitList(v.GetString("SUPER_ADMIN_DISCORD_IDS")),

		BlobAPIURL:     strings.TrimRight(v.GetString("BLOB_API_URL"), "/"),
		BlobToken:      v.GetString("BLOB_TOKEN"),
		MaxUploadBytes: positiveInt64(v, "MAX_UPLOAD_BYTES"),

		CronSecret: v.GetString("CRON_SECRET"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitRPS:       positiveFloat(v, "RATE_LIMIT_RPS"),
		RateLimitBurst:     positiveInt(v, "RATE_LIMIT_BURST"),

		MinVoteCommentLength: positiveInt(v, "MIN_VOTE_COMMENT_LENGTH"),
		ProposalDuration:     days(positiveInt(v, "PROPOSAL_DURATION_DAYS")),
		RoundDuration:        days(positiveInt(v, "ROUND_DURATION_DAYS")),
	}

	// 生产环境未显式指定时使用 JSON 日志
	if _, ok := os.LookupEnv("LOG_FORMAT"); !ok && cfg.IsProduction() {
		cfg.LogFormat = "json"
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_SECRET must be set in production")
		}
		cfg.SessionSecret = "secret_key_change_me"
	}

	current = cfg
	return cfg, nil
}

// Default 返回只包含默认值的配置，测试与 CLI 子命令使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Env:                  v.GetString("ENV"),
		Port:                 v.GetString("PORT"),
		SiteURL:              v.GetString("SITE_URL"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		SessionSecret:        "secret_key_change_me",
		DiscordAPIURL:        v.GetString("DISCORD_API_URL"),
		MaxUploadBytes:       v.GetInt64("MAX_UPLOAD_BYTES"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitRPS:         v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:       v.GetInt("RATE_LIMIT_BURST"),
		MinVoteCommentLength: v.GetInt("MIN_VOTE_COMMENT_LENGTH"),
		ProposalDuration:     days(v.GetInt("PROPOSAL_DURATION_DAYS")),
		RoundDuration:        days(v.GetInt("ROUND_DURATION_DAYS")),
	}
}

// Get 返回最近一次 Load 的配置，未加载时返回默认配置
func Get() *Config {
	if current == nil {
		current = Default()
	}
	return current
}

// Set 替换当前配置（测试用）
func Set(cfg *Config) {
	current = cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=govhub port=5432 sslmode=disable")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("DISCORD_API_URL", "https://discord.com/api")
	v.SetDefault("SUPER_ADMIN_DISCORD_IDS", "")
	v.SetDefault("BLOB_API_URL", "")
	v.SetDefault("BLOB_TOKEN", "")
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("MIN_VOTE_COMMENT_LENGTH", 10)
	v.SetDefault("PROPOSAL_DURATION_DAYS", 14)
	v.SetDefault("ROUND_DURATION_DAYS", 14)
}

// positiveInt 非法或非正数时回落到默认值
func positiveInt(v *viper.Viper, key string) int {
	n := v.GetInt(key)
	if n <= 0 {
		return defaultInt(key)
	}
	return n
}

func positiveInt64(v *viper.Viper, key string) int64 {
	n := v.GetInt64(key)
	if n <= 0 {
		return int64(defaultInt(key))
	}
	return n
}

func positiveFloat(v *viper.Viper, key string) float64 {
	f := v.GetFloat64(key)
	if f <= 0 {
		d := viper.New()
		setDefaults(d)
		return d.GetFloat64(key)
	}
	return f
}

func defaultInt(key string) int {
	d := viper.New()
	setDefaults(d)
	return d.GetInt(key)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
