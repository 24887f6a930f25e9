// Package config loads the service configuration from the environment.
//
// Load reads a .env file first when one is present; real environment
// variables win over it. Every key has a default except the secrets.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const defaultMongoDatabase = "haveli_housing"

// Config holds the service configuration.
type Config struct {
	// Port is the HTTP listen port (default: 5000).
	Port int

	// StoreDriver selects the record store: mongo, postgres, sqlite or
	// memory (default: mongo).
	StoreDriver string

	// MongoURI is the MongoDB connection string. The database name is taken
	// from its path.
	MongoURI string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// SQLitePath is the SQLite database file (default: backoffice.db).
	SQLitePath string

	// SecretKey signs session tokens. Required unless the store is memory.
	SecretKey string

	// SessionTTL is the lifetime of a login (default: 24h).
	SessionTTL time.Duration

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool

	// CORSOrigins are the origins allowed to call the API with credentials.
	CORSOrigins []string

	// RedisAddr enables the shared session revocation list when set.
	RedisAddr     string
	RedisPassword string

	// MetricsEnabled exposes /metrics and registers the metrics plugin
	// (default: true).
	MetricsEnabled bool

	// LogLevel is debug, info, warn or error; LogFormat is json or text.
	LogLevel  string
	LogFormat string

	// MonthlyTarget is the per-employee sales target (default: 10).
	MonthlyTarget int
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Port:           5000,
		StoreDriver:    DriverMongo,
		MongoURI:       "mongodb://localhost:27017/" + defaultMongoDatabase,
		SQLitePath:     "backoffice.db",
		SessionTTL:     24 * time.Hour,
		CORSOrigins:    []string{"http://localhost:3000"},
		MetricsEnabled: true,
		LogLevel:       "info",
		LogFormat:      "json",
		MonthlyTarget:  10,
	}
}

// Load reads .env, if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, starting from DefaultConfig.
// Malformed values are collected and returned together.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	p := parser{lookup: lookup}

	p.int("PORT", &cfg.Port)
	p.string("STORE_DRIVER", &cfg.StoreDriver)
	p.string("MONGODB_URI", &cfg.MongoURI)
	p.string("DATABASE_URL", &cfg.DatabaseURL)
	p.string("SQLITE_PATH", &cfg.SQLitePath)
	p.string("SECRET_KEY", &cfg.SecretKey)
	p.duration("SESSION_TTL", &cfg.SessionTTL)
	p.bool("COOKIE_SECURE", &cfg.CookieSecure)
	p.list("CORS_ORIGINS", &cfg.CORSOrigins)
	p.string("REDIS_ADDR", &cfg.RedisAddr)
	p.string("REDIS_PASSWORD", &cfg.RedisPassword)
	p.bool("METRICS_ENABLED", &cfg.MetricsEnabled)
	p.string("LOG_LEVEL", &cfg.LogLevel)
	p.string("LOG_FORMAT", &cfg.LogFormat)
	p.int("MONTHLY_TARGET", &cfg.MonthlyTarget)

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	return cfg, errors.Join(p.errs...)
}

// Validate checks that the settings the chosen driver needs are present.
func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("config: MONGODB_URI is required for the mongo store"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: DATABASE_URL is required for the postgres store"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("config: SQLITE_PATH is required for the sqlite store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.SecretKey == "" && c.StoreDriver != DriverMemory {
		errs = append(errs, errors.New("config: SECRET_KEY is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("config: SESSION_TTL must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// MongoDatabase is the database named in the MongoDB URI path, or
// haveli_housing when the URI names none.
func (c Config) MongoDatabase() string {
	u, err := url.Parse(c.MongoURI)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) value(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) string(key string, dst *string) {
	if v, ok := p.value(key); ok {
		*dst = v
	}
}

func (p *parser) int(key string, dst *int) {
	if v, ok := p.value(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (p *parser) bool(key string, dst *bool) {
	if v, ok := p.value(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	if v, ok := p.value(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = d
	}
}

func (p *parser) list(key string, dst *[]string) {
	if v, ok := p.value(key); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}
