package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AppEnv        string
	DatabaseURL   string
	JWTSecret     string
	SessionSecret string
	LogLevel      string
	GinMode       string
	CacheSize     int

	// 可选：启动时创建的管理员
	AdminEmail    string
	AdminLogin    string
	AdminPassword string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		AppEnv:        getEnvOrDefault("APP_ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: getEnvOrDefault("SESSION_SECRET", "secret_key_change_me"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		GinMode:       os.Getenv("GIN_MODE"),
		CacheSize:     500,
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminLogin:    os.Getenv("ADMIN_LOGIN"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if size := os.Getenv("CACHE_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return nil, errors.New("CACHE_SIZE must be a positive integer")
		}
		cfg.CacheSize = n
	}

	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required in production")
		}
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// SeedAdmin reports whether an admin account should be created on startup.
func (c *Config) SeedAdmin() bool {
	return c.AdminLogin != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
