package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port                string
	ApprovedReviewsOnly bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type ClientsConfig struct {
	CatalogURL string
	AccountURL string
	ReviewURL  string
	LicenseURL string
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Clients  ClientsConfig
}

// NewConfig reads configuration from the environment, loading .env first
// when present. Peer service URLs and database coordinates are required.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.ApprovedReviewsOnly = getEnvBool("REVIEWS_APPROVED_ONLY", true)

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getEnvInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	if cfg.Clients.CatalogURL, err = requireEnv("CATALOG_SERVICE_URL"); err != nil {
		return nil, err
	}
	if cfg.Clients.AccountURL, err = requireEnv("ACCOUNT_SERVICE_URL"); err != nil {
		return nil, err
	}
	if cfg.Clients.ReviewURL, err = requireEnv("REVIEW_SERVICE_URL"); err != nil {
		return nil, err
	}
	if cfg.Clients.LicenseURL, err = requireEnv("LICENSE_SERVICE_URL"); err != nil {
		return nil, err
	}
	cfg.Clients.Timeout = getEnvDuration("CLIENT_TIMEOUT", 5*time.Second)
	cfg.Clients.Retries = getEnvInt("CLIENT_RETRIES", 2)
	cfg.Clients.Backoff = getEnvDuration("CLIENT_BACKOFF", 100*time.Millisecond)

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
