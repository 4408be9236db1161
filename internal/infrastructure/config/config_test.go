package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "loyalty-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "loyalty", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 2, cfg.Automation.Hour)
		assert.Equal(t, 10*time.Minute, cfg.Automation.TenantTimeout)
		assert.Equal(t, 30*time.Minute, cfg.Automation.LockTTL)
		assert.Equal(t, time.Duration(0), cfg.Automation.PendingInfoDwell)
		assert.Equal(t, 5, cfg.Automation.AlertErrorLimit)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with LOYALTY prefix", func(t *testing.T) {
		t.Setenv("LOYALTY_APP_PORT", "9000")
		t.Setenv("LOYALTY_DATABASE_HOST", "db.internal")
		t.Setenv("LOYALTY_AUTOMATION_HOUR", "0")
		t.Setenv("LOYALTY_AUTOMATION_PENDING_INFO_DWELL", "24h")
		t.Setenv("LOYALTY_CRON_SECRET", "cron-secret")
		t.Setenv("LOYALTY_ENCRYPTION_KEY", testKey)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 0, cfg.Automation.Hour)
		assert.Equal(t, 24*time.Hour, cfg.Automation.PendingInfoDwell)
		assert.Equal(t, "cron-secret", cfg.Cron.Secret)

		key, err := cfg.Encryption.MasterKey()
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("rejects out of range hour", func(t *testing.T) {
		t.Setenv("LOYALTY_AUTOMATION_HOUR", "24")

		_, err := Load()
		assert.ErrorContains(t, err, "automation.hour")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Automation.Hour = 2
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"idle exceeds open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"short encryption key", func(c *Config) { c.Encryption.Key = "abcd" }, "64 hex"},
		{"non hex encryption key", func(c *Config) { c.Encryption.Key = strings.Repeat("z", 64) }, "not valid hex"},
		{"negative dwell", func(c *Config) { c.Automation.PendingInfoDwell = -time.Hour }, "pending_info_dwell"},
		{"notification without url", func(c *Config) { c.Notification.Enabled = true }, "notification.api_url"},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true }, "storage.bucket"},
		{"sampling ratio out of range", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"production needs cron secret", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = strings.Repeat("s", 32)
		}, "cron.secret"},
		{"production needs encryption key", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = strings.Repeat("s", 32)
			c.Cron.Secret = "cron"
		}, "encryption.key"},
		{"production rejects sslmode disable", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = strings.Repeat("s", 32)
			c.Cron.Secret = "cron"
			c.Encryption.Key = testKey
			c.Database.Password = "pw"
		}, "sslmode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "loyalty", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/loyalty?sslmode=require", d.DSN())
}
