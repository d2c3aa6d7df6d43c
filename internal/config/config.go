// Package config loads process configuration from the environment (and an
// optional .env file) into a typed Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// APL drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverBolt     = "bolt"
)

// Config is the complete runtime configuration.
type Config struct {
	Server       ServerConfig
	Logging      LoggingConfig
	APL          APLConfig
	Registration RegistrationConfig

	// AppConfigPath points at the static app description (manifest.Load).
	AppConfigPath string `env:"APP_CONFIG,default=config/app.yaml"`
}

type ServerConfig struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=8008"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

// APLConfig selects and configures the installation store.
type APLConfig struct {
	Driver           string `env:"APL_DRIVER,default=file"`
	FilePath         string `env:"APL_FILE_PATH,default=.saleor-app-auth.json"`
	FileResetCorrupt bool   `env:"APL_FILE_RESET_CORRUPT,default=false"`
	PostgresDSN      string `env:"APL_POSTGRES_DSN"`
	PostgresMigrate  bool   `env:"APL_POSTGRES_MIGRATE,default=true"`
	RedisAddr        string `env:"APL_REDIS_ADDR,default=localhost:6379"`
	RedisPassword    string `env:"APL_REDIS_PASSWORD"`
	RedisDB          int    `env:"APL_REDIS_DB,default=0"`
	RedisPrefix      string `env:"APL_REDIS_PREFIX,default=saleor-app:"`
	BoltPath         string `env:"APL_BOLT_PATH,default=data/apl.db"`
}

type RegistrationConfig struct {
	ValidationTimeout time.Duration `env:"REGISTER_VALIDATION_TIMEOUT,default=8s"`
	// AllowedURLs is a comma-separated list of regular expressions. Empty
	// allows every instance.
	AllowedURLs string  `env:"ALLOWED_SALEOR_URLS"`
	RateLimit   float64 `env:"REGISTER_RATE_LIMIT,default=5"`
	RateBurst   int     `env:"REGISTER_RATE_BURST,default=10"`
}

// Load reads envFile (if it exists) into the process environment and decodes
// the environment into a Config. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the app cannot start with.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT %d out of range", c.Server.Port))
	}

	switch c.APL.Driver {
	case DriverFile:
		if c.APL.FilePath == "" {
			errs = append(errs, "APL_FILE_PATH is required for the file driver")
		}
	case DriverMemory:
	case DriverPostgres:
		if c.APL.PostgresDSN == "" {
			errs = append(errs, "APL_POSTGRES_DSN is required for the postgres driver")
		}
	case DriverRedis:
		if c.APL.RedisAddr == "" {
			errs = append(errs, "APL_REDIS_ADDR is required for the redis driver")
		}
	case DriverBolt:
		if c.APL.BoltPath == "" {
			errs = append(errs, "APL_BOLT_PATH is required for the bolt driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown APL_DRIVER %q", c.APL.Driver))
	}

	if c.Registration.ValidationTimeout <= 0 {
		errs = append(errs, "REGISTER_VALIDATION_TIMEOUT must be positive")
	}
	if c.Registration.RateLimit < 0 || c.Registration.RateBurst < 0 {
		errs = append(errs, "REGISTER_RATE_LIMIT and REGISTER_RATE_BURST must not be negative")
	}
	if _, err := c.AllowedURLPatterns(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// ListenAddr is host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// AllowedURLPatterns compiles ALLOWED_SALEOR_URLS. Each pattern must match
// the whole API URL.
func (c *Config) AllowedURLPatterns() ([]*regexp.Regexp, error) {
	var patterns []*regexp.Regexp
	for _, raw := range strings.Split(c.Registration.AllowedURLs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + raw + ")$")
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_SALEOR_URLS: %q: %w", raw, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}
