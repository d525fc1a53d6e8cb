package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change"

type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	JWTSecret       string
	MaxRequestBytes int64
	SeedEmail       string
	SeedPassword    string
	SeedName        string
	SeedCRM         string
	LogLevel        string
	Env             string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		HTTPAddr:        getEnv("OFTALMO_HTTP_ADDR", ":5000"),
		DatabaseDSN:     getEnv("OFTALMO_DB_DSN", "file:oftalmo.db?cache=shared&mode=rwc"),
		JWTSecret:       getEnv("OFTALMO_JWT_SECRET", devJWTSecret),
		MaxRequestBytes: getEnvInt64("OFTALMO_MAX_REQUEST_BYTES", 1<<20),
		SeedEmail:       getEnv("OFTALMO_SEED_EMAIL", ""),
		SeedPassword:    getEnv("OFTALMO_SEED_PASSWORD", ""),
		SeedName:        getEnv("OFTALMO_SEED_NAME", "Médico Demonstração"),
		SeedCRM:         getEnv("OFTALMO_SEED_CRM", "00000-SP"),
		LogLevel:        getEnv("OFTALMO_LOG_LEVEL", "info"),
		Env:             getEnv("OFTALMO_ENV", "development"),
	}
}

// DevSecret reports whether the built-in JWT secret is in use.
func (c Config) DevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
