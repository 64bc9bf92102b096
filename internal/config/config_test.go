package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	ConfigPathEnv, databaseDriverEnv, databaseURLEnv, apiKeyEnv, portEnv, logLevelEnv, logFormatEnv,
	dealRetentionDaysEnv, eventRetentionDaysEnv, telegramTokenEnv, telegramChatIDEnv,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedEnv {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, ":3000", cfg.Server.Addr())
	require.Equal(t, "0 */4 * * *", cfg.Scheduler.CronExpression)
	require.Equal(t, "Europe/Athens", cfg.Scheduler.Location().String())
	require.True(t, cfg.Scheduler.StartupBatch())
	require.Equal(t, 90, cfg.Retention.DealDays)
	require.Equal(t, 90, cfg.Retention.EventDays)
	require.Equal(t, 3, cfg.Scrape.RetryCount())
	require.Equal(t, time.Second, cfg.Scrape.Backoff)
	require.Equal(t, 10*time.Second, cfg.Scrape.MaxBackoff)
	require.False(t, cfg.Notifications.Telegram.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
  apiKey: from-file
database:
  driver: SQLite
  dsn: file:scraper.db
scheduler:
  timezone: UTC
  runOnStartup: false
scrape:
  httpTimeout: 15s
  retries: 5
retention:
  dealDays: 30
logging:
  format: json
`), 0o600))

	t.Setenv(ConfigPathEnv, path)
	t.Setenv(portEnv, "9090")
	t.Setenv(apiKeyEnv, "from-env")
	t.Setenv(eventRetentionDaysEnv, "0")
	t.Setenv(dealRetentionDaysEnv, "not-a-number")

	cfg := Load("")
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "file:scraper.db", cfg.Database.DSN)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "from-env", cfg.Server.APIKey)
	require.Equal(t, time.UTC, cfg.Scheduler.Location())
	require.False(t, cfg.Scheduler.StartupBatch())
	require.Equal(t, 15*time.Second, cfg.Scrape.HTTPTimeout)
	require.Equal(t, 5, cfg.Scrape.RetryCount())
	require.Equal(t, time.Second, cfg.Scrape.Backoff)
	require.Equal(t, 30, cfg.Retention.DealDays)
	require.Equal(t, 1, cfg.Retention.EventDays)
	require.Equal(t, "json", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitPathWins(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	fromEnv := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("server:\n  port: 7000\n"), 0o600))
	require.NoError(t, os.WriteFile(fromEnv, []byte("server:\n  port: 7001\n"), 0o600))
	t.Setenv(ConfigPathEnv, fromEnv)

	require.Equal(t, 7000, Load(explicit).Server.Port)
	require.Equal(t, 3000, Load(filepath.Join(dir, "missing.yaml")).Server.Port)
}

func TestLoadKeepsExplicitZeroRetries(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  retries: 0\n"), 0o600))

	cfg := Load(path)
	require.NotNil(t, cfg.Scrape.Retries)
	require.Equal(t, 0, cfg.Scrape.RetryCount())
	require.NoError(t, cfg.Validate())

	require.Equal(t, 3, Load("").Scrape.RetryCount())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "dsn", mutate: func(c *Config) { c.Database.DSN = " " }},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "cron", mutate: func(c *Config) { c.Scheduler.CronExpression = "every four hours" }},
		{name: "timeout", mutate: func(c *Config) { c.Scrape.HTTPTimeout = 0 }},
		{name: "retries", mutate: func(c *Config) { c.Scrape.Retries = intPtr(-1) }},
		{name: "backoff", mutate: func(c *Config) { c.Scrape.Backoff = time.Minute }},
		{name: "retention", mutate: func(c *Config) { c.Retention.EventDays = 0 }},
		{name: "telegram", mutate: func(c *Config) { c.Notifications.Telegram.BotToken = "token" }},
	}

	for _, tt := range tests {
		cfg := defaultConfig()
		tt.mutate(&cfg)
		require.Error(t, cfg.Validate(), tt.name)
	}
}

func TestRetentionCutoffs(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	r := RetentionConfig{DealDays: 10, EventDays: 0}

	require.Equal(t, time.Date(2025, time.December, 21, 0, 0, 0, 0, time.UTC), r.DealCutoff(now))
	require.Equal(t, time.Date(2025, time.December, 30, 0, 0, 0, 0, time.UTC), r.EventCutoff(now))
}
