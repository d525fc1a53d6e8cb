package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "http://localhost:5000/api"
	// PerPage is the fixed page size every list view requests.
	PerPage = 10
)

type Config struct {
	APIBaseURL    string
	SessionDir    string
	LogLevel      string
	LogFile       string
	Env           string
	RedirectDelay time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		APIBaseURL:    getEnv("OFTALMO_API_URL", DefaultAPIBaseURL),
		SessionDir:    getEnv("OFTALMO_SESSION_DIR", defaultSessionDir()),
		LogLevel:      getEnv("OFTALMO_LOG_LEVEL", "warn"),
		LogFile:       getEnv("OFTALMO_LOG_FILE", "stderr"),
		Env:           getEnv("OFTALMO_ENV", "production"),
		RedirectDelay: getEnvDuration("OFTALMO_REDIRECT_DELAY", 2*time.Second),
	}
}

func defaultSessionDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".oftalmo")
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
