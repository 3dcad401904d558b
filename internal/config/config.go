// Package config loads carpool settings from a TOML file with env overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"carpool/internal/logger"
)

// DefaultPath is used when no config file is given on the command line.
const DefaultPath = "etc/carpool.toml"

const (
	msgLoadingConfig    = "loading configuration"
	msgConfigLoaded     = "configuration loaded"
	msgFailedLoadConfig = "failed to load configuration"

	errFailedLoadConfig   = "failed to load configuration"
	errFailedCreateLogger = "failed to create logger"
)

var (
	ErrNegativeTTL   = errors.New("cache.ttl must not be negative")
	ErrInvalidPort   = errors.New("server.port must be between 0 and 65535")
	ErrNegativeValue = errors.New("durations and limits must not be negative")
)

// Config is the full carpool configuration.
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Admin   AdminConfig   `toml:"admin"`
	Logging LoggingConfig `toml:"logging"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	TTL           int64         `toml:"ttl" env:"CARPOOL_CACHE_TTL"`
	PruneInterval time.Duration `toml:"prune_interval" env:"CARPOOL_CACHE_PRUNE_INTERVAL"`
}

// ServerConfig holds TCP listener settings.
type ServerConfig struct {
	Host         string        `toml:"host" env:"CARPOOL_SERVER_HOST" env-default:"127.0.0.1"`
	Port         int           `toml:"port" env:"CARPOOL_SERVER_PORT" env-default:"8555"`
	IdleTimeout  time.Duration `toml:"idle_timeout" env:"CARPOOL_SERVER_IDLE_TIMEOUT" env-default:"5m"`
	MaxLineBytes int           `toml:"max_line_bytes" env:"CARPOOL_SERVER_MAX_LINE_BYTES" env-default:"1048576"`
}

// AdminConfig holds the admin HTTP settings. An empty Addr disables it.
type AdminConfig struct {
	Addr string `toml:"addr" env:"CARPOOL_ADMIN_ADDR"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `toml:"level" env:"CARPOOL_LOG_LEVEL" env-default:"info"`
	Mode  string `toml:"mode" env:"CARPOOL_LOG_MODE" env-default:"production"`
}

// Load reads the TOML file at path, applies env overrides and defaults, and
// validates the result. It logs through the logger in ctx, or a new
// production logger when ctx has none.
func Load(ctx context.Context, path string) (*Config, error) {
	log, err := logger.FromContext(ctx)
	if err != nil {
		log, err = logger.NewLogger(logger.Production, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errFailedCreateLogger, err)
		}
		ctx = logger.NewContext(ctx, log)
	}

	log.Info(ctx, msgLoadingConfig, zap.String("path", path))

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		log.Error(ctx, msgFailedLoadConfig, zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, msgFailedLoadConfig, zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfig, err)
	}

	log.Info(ctx, msgConfigLoaded,
		zap.Int64("cache_ttl_seconds", cfg.Cache.TTL),
		zap.Duration("cache_prune_interval", cfg.Cache.PruneInterval),
		zap.String("server_address", cfg.Server.Address()),
		zap.Int("server_max_line_bytes", cfg.Server.MaxLineBytes),
		zap.String("admin_address", cfg.Admin.Addr),
		zap.String("log_level", cfg.Logging.Level))

	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Cache.TTL < 0 {
		return ErrNegativeTTL
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Cache.PruneInterval < 0 || c.Server.IdleTimeout < 0 || c.Server.MaxLineBytes < 0 {
		return ErrNegativeValue
	}
	return nil
}

// TTLSeconds returns the validated TTL.
func (c *CacheConfig) TTLSeconds() uint64 {
	if c.TTL < 0 {
		return 0
	}
	return uint64(c.TTL)
}

// Address returns host:port for the TCP listener.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// GetEnvironment maps the logging mode onto a logger environment.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == "development" {
		return logger.Development
	}
	return logger.Production
}
