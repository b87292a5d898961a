package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

func String(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func Int(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func Port(key, fallback string) (string, error) {
	v := String(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

// DatabaseURL returns DATABASE_URL when set, otherwise assembles a postgres
// URL from the individual POSTGRES_* variables the deployment environment
// provides.
func DatabaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := String("POSTGRES_USERNAME", "postgres")
	pass := String("POSTGRES_PASSWORD", "password")
	host := String("POSTGRES_HOST", "postgres")
	port := String("POSTGRES_PORT", "5432")
	name := String("POSTGRES_DB", "appointment_db")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(user), url.QueryEscape(pass), host, port, name)
}
