// Package config builds runtime configuration from the environment so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Postgres captures the database connection settings. An empty DSN means
// run on the in-memory store.
type Postgres struct {
	DSN string
}

// Redis captures the redis connection settings. An empty URL disables the
// redis-backed snooze queue, preferences and push token storage.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the transition ingest settings. No brokers means
// transitions reconcile inline on the request path.
type Kafka struct {
	Brokers []string
}

// Geofence captures the external geofencing service settings. An empty
// URL keeps the region registry in-process.
type Geofence struct {
	ServiceURL string
}

// FCM captures the push transport settings. An empty credentials path
// keeps notifications in-process.
type FCM struct {
	CredentialsFile string
}

// Auth captures device token signing settings.
type Auth struct {
	SigningKey string
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
}

// Config is the full application configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Geofence Geofence
	FCM      FCM
	Auth     Auth

	SnoozeTickInterval time.Duration
}

// FromEnv reads configuration from PINDER_* environment variables,
// falling back to development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envOr("PINDER_ADDR", ":8080"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("PINDER_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("PINDER_REDIS_URL"),
			PoolSize:     envInt("PINDER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PINDER_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PINDER_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PINDER_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PINDER_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("PINDER_KAFKA_BROKERS"),
		},
		Geofence: Geofence{
			ServiceURL: os.Getenv("PINDER_GEOFENCE_URL"),
		},
		FCM: FCM{
			CredentialsFile: os.Getenv("PINDER_FCM_CREDENTIALS_FILE"),
		},
		Auth: Auth{
			SigningKey: envOr("PINDER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("PINDER_JWT_ISSUER", "pinder"),
			Audience:   envOr("PINDER_JWT_AUDIENCE", "pinder-devices"),
			TokenTTL:   envDuration("PINDER_JWT_TOKEN_TTL", 30*24*time.Hour),
		},
		SnoozeTickInterval: envDuration("PINDER_SNOOZE_TICK_INTERVAL", 15*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
