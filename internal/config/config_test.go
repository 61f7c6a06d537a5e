package config

import (
	"bytes"
	"testing"
	"time"

	"govhub/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.MinVoteCommentLength)
	assert.Equal(t, 14*24*time.Hour, cfg.ProposalDuration)
	assert.Equal(t, "secret_key_change_me", cfg.SessionSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Same(t, cfg, Get())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SUPER_ADMIN_DISCORD_IDS", "111, 222 ,,333")
	t.Setenv("MIN_VOTE_COMMENT_LENGTH", "25")
	t.Setenv("ROUND_DURATION_DAYS", "-3")
	t.Setenv("SITE_URL", "https://gov.example.org/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.SuperAdminDiscordIDs)
	assert.Equal(t, 25, cfg.MinVoteCommentLength)
	assert.Equal(t, 14*24*time.Hour, cfg.RoundDuration, "negative durations fall back to the default")
	assert.Equal(t, "https://gov.example.org", cfg.SiteURL)
}

func TestLoadRequiresSessionSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestProductionDefaultsToJSONLogs(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLogsMissingDotEnvThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.Init("info", "text") })
	t.Setenv("SESSION_SECRET", "s3cret")

	_, err := Load()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No .env file found")
	assert.Contains(t, buf.String(), "service=govhub")
}
