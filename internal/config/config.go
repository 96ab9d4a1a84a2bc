// Package config loads the storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"

	CatalogSQLite = "sqlite"
	CatalogAPI    = "api"
)

type Config struct {
	HTTPPort string
	LogLevel string

	KVBackend     string
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration
	MongoURI      string
	MongoDBName   string
	Postgres      PostgresConfig

	CatalogSource string
	CatalogDBPath string
	StoreAPIURL   string

	KafkaBrokers  []string
	CheckoutTopic string
	ConsumerGroup string

	// CartCacheSize caps the engines kept in memory
	CartCacheSize int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Load reads the environment, applying defaults for anything unset.
func Load() (*Config, error) {
	port, err := getEnvInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	redisTTL, err := getEnvDuration("REDIS_TTL", 0)
	if err != nil {
		return nil, err
	}
	cartCacheSize, err := getEnvInt("CART_CACHE_SIZE", 10000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		KVBackend:     strings.ToLower(getEnv("KV_BACKEND", BackendMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      redisTTL,
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     port,
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:   getEnv("POSTGRES_DB", "storefront"),
		},
		CatalogSource:   strings.ToLower(getEnv("CATALOG_SOURCE", CatalogSQLite)),
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "storefront.db"),
		StoreAPIURL:     getEnv("STORE_API_URL", "http://localhost:8000"),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		CheckoutTopic:   getEnv("CHECKOUT_TOPIC", "storefront-checkout"),
		ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", ""),
		CartCacheSize:   cartCacheSize,
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.KVBackend {
	case BackendMemory, BackendRedis, BackendMongo, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown KV_BACKEND %q", c.KVBackend))
	}
	switch c.CatalogSource {
	case CatalogSQLite:
		if c.CatalogDBPath == "" {
			errs = append(errs, errors.New("CATALOG_DB_PATH is required for the sqlite catalog"))
		}
	case CatalogAPI:
		if c.StoreAPIURL == "" {
			errs = append(errs, errors.New("STORE_API_URL is required for the api catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.CartCacheSize <= 0 {
		errs = append(errs, errors.New("CART_CACHE_SIZE must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.KafkaEnabled() && c.CheckoutTopic == "" {
		errs = append(errs, errors.New("CHECKOUT_TOPIC is required when KAFKA_BROKERS is set"))
	}

	return errors.Join(errs...)
}

// KafkaEnabled reports whether checkout events are published and consumed.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
