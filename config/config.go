package config

import (
	"fmt"
	"os"
	"strings"
)

// Config carries everything the process needs from the environment. It is
// loaded once in main and passed down explicitly; nothing else reads the
// environment after startup.
type Config struct {
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	JWTSecret  string
	ListenAddr string
}

// Load reads the configuration from the environment. godotenv is expected to
// have been loaded already when a .env file is in use.
func Load() Config {
	cfg := Config{
		DBUser:     env("DB_USER", ""),
		DBPass:     env("DB_PASSWORD", ""),
		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     env("DB_PORT", "5432"),
		DBName:     env("DB_NAME", "inkpad"),
		JWTSecret:  env("JWT_SECRET", ""),
		ListenAddr: env("LISTEN_ADDR", ":8080"),
	}
	return cfg
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
