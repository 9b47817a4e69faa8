package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Remote  RemoteConfig
	Breaker BreakerConfig
	Session SessionConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Logger  LoggerConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// RemoteConfig points at the storefront REST API that owns carts, products and orders.
type RemoteConfig struct {
	URL     string
	Timeout int // seconds
}

// BreakerConfig tunes the circuit breaker in front of the remote API.
type BreakerConfig struct {
	MaxFailures int
	OpenTimeout int // seconds
}

// SessionConfig holds visitor session configuration.
type SessionConfig struct {
	Backend      string // "memory" or "redis"
	TTL          int    // minutes
	CookieName   string
	CookieSecure bool
}

// RedisConfig is only read when the session backend is redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CORSConfig holds the origin allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigin string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Remote: RemoteConfig{
			URL:     getEnv("REMOTE_API_URL", "http://localhost:3000/api/"),
			Timeout: getEnvAsInt("REMOTE_API_TIMEOUT", 10),
		},
		Breaker: BreakerConfig{
			MaxFailures: getEnvAsInt("BREAKER_MAX_FAILURES", 5),
			OpenTimeout: getEnvAsInt("BREAKER_OPEN_TIMEOUT", 30),
		},
		Session: SessionConfig{
			Backend:      getEnv("SESSION_BACKEND", "memory"),
			TTL:          getEnvAsInt("SESSION_TTL", 1440),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "bk_session"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Remote.URL == "" {
		return fmt.Errorf("remote API URL is required")
	}

	u, err := url.Parse(c.Remote.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid remote API URL: %s", c.Remote.URL)
	}

	if c.Remote.Timeout < 1 {
		return fmt.Errorf("remote API timeout must be at least 1 second")
	}

	if c.Breaker.MaxFailures < 1 {
		return fmt.Errorf("breaker max failures must be at least 1")
	}

	if c.Breaker.OpenTimeout < 1 {
		return fmt.Errorf("breaker open timeout must be at least 1 second")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when the session backend is redis")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis database: %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", c.Session.Backend)
	}

	if c.Session.TTL < 0 {
		return fmt.Errorf("session TTL cannot be negative")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns the per-request timeout for remote calls.
func (c *RemoteConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// OpenTimeoutDuration returns how long the breaker stays open before probing.
func (c *BreakerConfig) OpenTimeoutDuration() time.Duration {
	return time.Duration(c.OpenTimeout) * time.Second
}

// TTLDuration returns the session lifetime. Zero means sessions never expire.
func (c *SessionConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Minute
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
