package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Outbound calls
	HTTPTimeout    time.Duration
	CarrierTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	TTLs            map[domain.Kind]time.Duration
	CacheBackend    string // memory or redis
	RedisURL        string
	CacheMaxEntries int
	SweepInterval   time.Duration

	// Admin routes
	AdminJWTSecret string

	// Observability
	OTLPEndpoint string

	// Providers
	CatalogFile     string
	DirectDataToken string
	ReceitaWSToken  string
	ABREndpoint     string
	OfficialLookup  bool
}

// DefaultTTLs are the per-kind cache lifetimes.
var DefaultTTLs = map[domain.Kind]time.Duration{
	domain.KindCEP:   time.Hour,
	domain.KindCNPJ:  6 * time.Hour,
	domain.KindDDD:   24 * time.Hour,
	domain.KindCPF:   time.Hour,
	domain.KindPhone: time.Hour,
	domain.KindBank:  24 * time.Hour,
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	ttls := make(map[domain.Kind]time.Duration, len(DefaultTTLs))
	for kind, def := range DefaultTTLs {
		ttls[kind] = getEnvDuration("CACHE_TTL_"+strings.ToUpper(string(kind)), def)
	}

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		CarrierTimeout: getEnvDuration("CARRIER_TIMEOUT", 5*time.Second),

		MaxRetries:     getEnvInt("PROVIDER_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		TTLs:            ttls,
		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 10000),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CatalogFile:     getEnv("CATALOG_FILE", ""),
		DirectDataToken: getEnv("DIRECTDATA_TOKEN", ""),
		ReceitaWSToken:  getEnv("RECEITAWS_TOKEN", ""),
		ABREndpoint:     getEnv("ABR_ENDPOINT", ""),
		OfficialLookup:  getEnvBool("CARRIER_OFFICIAL_LOOKUP", true),
	}
}

// TTL returns the cache lifetime for kind, falling back to one hour.
func (c *Config) TTL(kind domain.Kind) time.Duration {
	if d, ok := c.TTLs[kind]; ok && d > 0 {
		return d
	}
	return time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
