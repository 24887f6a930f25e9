package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havelihousing/backoffice/config"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := config.FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, config.DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 10, cfg.MonthlyTarget)
	assert.Equal(t, "haveli_housing", cfg.MongoDatabase())
	assert.Equal(t, ":5000", cfg.Addr())

	// Mongo without a secret is not runnable.
	assert.Error(t, cfg.Validate())
}

func TestOverrides(t *testing.T) {
	cfg, err := config.FromLookup(lookup(map[string]string{
		"PORT":            "8080",
		"STORE_DRIVER":    "Postgres",
		"DATABASE_URL":    "postgres://localhost/backoffice",
		"SECRET_KEY":      "s3cret",
		"SESSION_TTL":     "2h30m",
		"COOKIE_SECURE":   "true",
		"CORS_ORIGINS":    "https://a.example, https://b.example,",
		"METRICS_ENABLED": "false",
		"LOG_LEVEL":       "debug",
		"MONTHLY_TARGET":  "25",
		"REDIS_ADDR":      "  ",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 150*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 25, cfg.MonthlyTarget)
	assert.Empty(t, cfg.RedisAddr, "blank values keep the default")

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestMalformedValues(t *testing.T) {
	_, err := config.FromLookup(lookup(map[string]string{
		"PORT":          "eighty",
		"SESSION_TTL":   "forever",
		"COOKIE_SECURE": "maybe",
	}))
	require.Error(t, err)
	for _, key := range []string{"PORT", "SESSION_TTL", "COOKIE_SECURE"} {
		assert.ErrorContains(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	base := config.DefaultConfig()
	base.SecretKey = "s3cret"

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"mongo ok", func(*config.Config) {}, ""},
		{"memory needs no secret", func(c *config.Config) { c.StoreDriver = config.DriverMemory; c.SecretKey = "" }, ""},
		{"postgres needs url", func(c *config.Config) { c.StoreDriver = config.DriverPostgres }, "DATABASE_URL"},
		{"sqlite needs path", func(c *config.Config) { c.StoreDriver = config.DriverSQLite; c.SQLitePath = "" }, "SQLITE_PATH"},
		{"unknown driver", func(c *config.Config) { c.StoreDriver = "cassandra" }, "STORE_DRIVER"},
		{"missing secret", func(c *config.Config) { c.SecretKey = "" }, "SECRET_KEY"},
		{"bad port", func(c *config.Config) { c.Port = 70000 }, "PORT"},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMongoDatabase(t *testing.T) {
	tests := map[string]string{
		"mongodb://localhost:27017/haveli_housing":               "haveli_housing",
		"mongodb://user:pw@db.internal:27017/sales?authSource=a": "sales",
		"mongodb://localhost:27017":                              "haveli_housing",
		"mongodb+srv://cluster.example.net/":                     "haveli_housing",
	}
	for uri, want := range tests {
		cfg := config.Config{MongoURI: uri}
		assert.Equal(t, want, cfg.MongoDatabase(), uri)
	}
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\nSTORE_DRIVER=sqlite\n"), 0o600))

	env, err := godotenv.Read(path)
	require.NoError(t, err)

	cfg, err := config.FromLookup(lookup(env))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, config.DriverSQLite, cfg.StoreDriver)
}
