// Package config builds runtime configuration from the environment so main
// stays lean. A .env file is honored in development when present.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "kidsearch/pkg/platform/strings"
)

// Config captures everything the server needs to start.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	YandexAPIKey     string
	GeocoderCacheTTL time.Duration

	JWTSigningKey  string
	JWTIssuer      string
	AccessTokenTTL time.Duration
}

// FromEnv builds a Config from environment variables, loading .env first if
// one exists in the working directory.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        envOr("KIDSEARCH_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		KafkaBrokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:   envOr("AUDIT_TOPIC", "kidsearch.audit"),

		YandexAPIKey:     os.Getenv("YANDEX_MAP_API_KEY"),
		GeocoderCacheTTL: durationOr("GEOCODER_CACHE_TTL", 24*time.Hour),

		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "kidsearch"),
		AccessTokenTTL: durationOr("ACCESS_TOKEN_TTL", time.Hour),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
