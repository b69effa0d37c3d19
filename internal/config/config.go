package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/errs"
)

// Storage backends accepted in cache.backend.
const (
	BackendHash    = "hash"
	BackendOrdered = "ordered"
	BackendSQLite  = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	EmptyDelay time.Duration `mapstructure:"empty_delay"`
	DeltaDelay time.Duration `mapstructure:"delta_delay"`
	Backend    string        `mapstructure:"backend"`
}

// TTLConfig converts the section into the cache package configuration.
func (c CacheConfig) TTLConfig() cache.Config {
	return cache.NewBuilder(c.TTL).
		EmptyDelay(c.EmptyDelay).
		DeltaDelay(c.DeltaDelay).
		Build()
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
	// LogLevel is the gorm logger level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from defaults, an optional YAML file and FTC_*
// environment variables, in increasing order of precedence.
// It returns the config file actually used, if any.
func Load(configFile string) (Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, "", errs.Wrap(err, "read config")
		}
		// Keep defaults and env when no file is provided.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate checks the settings the application cannot start without.
// Cache durations are not validated.
func (c Config) Validate() error {
	switch c.Server.Mode {
	case "", gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	switch c.Cache.Backend {
	case BackendHash, BackendOrdered, BackendSQLite:
	default:
		return fmt.Errorf("cache.backend must be one of %q, %q, %q, got %q",
			BackendHash, BackendOrdered, BackendSQLite, c.Cache.Backend)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8008")
	v.SetDefault("server.mode", "release")
	v.SetDefault("cache.ttl", "1m")
	v.SetDefault("cache.empty_delay", cache.DefaultEmptyDelay.String())
	v.SetDefault("cache.delta_delay", cache.DefaultDeltaDelay.String())
	v.SetDefault("cache.backend", BackendHash)
	v.SetDefault("database.dsn", "fixedttl-cache.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("auth.jwt_secret", "development-insecure-secret-change-me")
	v.SetDefault("auth.issuer", "fixedttl-cache")
	v.SetDefault("auth.audience", "fixedttl-cache-clients")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}
