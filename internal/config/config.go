package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Shortener ShortenerConfig
	Redis     RedisConfig
	GeoIP     GeoIPConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Port            string
	BaseURL         string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type ShortenerConfig struct {
	DefaultValidity int           // minutes
	CleanupInterval time.Duration // 0 disables the periodic sweep
}

// RedisConfig describes the click feed target. An empty Host disables it.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type GeoIPConfig struct {
	DatabasePath string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads the optional env file at path and overlays environment variables.
// A missing file is not an error: defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")
	cfg.App.ShutdownTimeout = v.GetDuration("SHUTDOWN_TIMEOUT")

	cfg.Shortener.DefaultValidity = v.GetInt("DEFAULT_VALIDITY")
	cfg.Shortener.CleanupInterval = v.GetDuration("CLEANUP_INTERVAL")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.Channel = v.GetString("REDIS_CHANNEL")

	cfg.GeoIP.DatabasePath = v.GetString("GEOIP_DB")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	// Format: origin1,origin2
	cfg.CORS.AllowedOrigins = parseList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)
	v.SetDefault("DEFAULT_VALIDITY", 30)
	v.SetDefault("CLEANUP_INTERVAL", time.Minute)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "shorturls:clicks")
	// 100 requests per 15 minutes per IP
	v.SetDefault("RATE_LIMIT_RPS", 100.0/900.0)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if c.App.BaseURL == "" {
		return errors.New("BASE_URL must not be empty")
	}
	if c.Shortener.DefaultValidity <= 0 {
		return fmt.Errorf("DEFAULT_VALIDITY must be positive, got %d", c.Shortener.DefaultValidity)
	}
	if c.Shortener.CleanupInterval < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must not be negative, got %s", c.Shortener.CleanupInterval)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative, got %d", c.Redis.DB)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func parseList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
