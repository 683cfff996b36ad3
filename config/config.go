// Package config loads runtime configuration from config files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env    string `mapstructure:"env"` // current application environment (local, dev, prod etc)
	Server Server `mapstructure:"server"`
	DB     DB     `mapstructure:"database"`
	Redis  Redis  `mapstructure:"redis"`
	MQ     MQ     `mapstructure:"rabbitmq"`
	JWT    JWT    `mapstructure:"jwt"`
	Sweep  Sweep  `mapstructure:"sweep"`
}

// Server contains the HTTP server parameters.
type Server struct {
	ListenAddr               string        `mapstructure:"listen_addr"`
	AllowedOrigins           []string      `mapstructure:"allowed_origins"`
	EnablePprof              bool          `mapstructure:"enable_pprof"`
	DrainDuration            time.Duration `mapstructure:"drain_duration"`
	GracefulShutdownDuration time.Duration `mapstructure:"graceful_shutdown_duration"`
	ReadTimeout              time.Duration `mapstructure:"read_timeout"`
	WriteTimeout             time.Duration `mapstructure:"write_timeout"`
}

// DB contains database-related configuration parameters. An empty URL selects
// the in-memory store, which suits development and tests.
type DB struct {
	URL string `mapstructure:"-"` // connection string loaded from environment
}

// Redis contains the join-code allocator backend parameters. An empty address
// selects the in-process allocator.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"-"` // loaded from environment
	DB       int    `mapstructure:"db"`
}

// MQ contains the lifecycle event broker parameters. An empty URL disables
// publishing.
type MQ struct {
	URL string `mapstructure:"-"` // loaded from environment
}

// JWT contains token verification parameters.
type JWT struct {
	Secret string `mapstructure:"-"` // loaded from environment
}

// Sweep configures the expired-session cleanup schedule.
type Sweep struct {
	Cron string `mapstructure:"cron"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.drain_duration", "5s")
	v.SetDefault("server.graceful_shutdown_duration", "15s")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sweep.cron", "@every 10m")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("rabbitmq_url", "RABBITMQ_URL")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("server.listen_addr", "LISTEN_ADDR")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.MQ.URL = v.GetString("rabbitmq_url")

	cfg.JWT.Secret = v.GetString("jwt_secret")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET", ErrMissingEnvironmentVariables)
	}

	return &cfg, nil
}
