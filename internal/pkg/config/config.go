// Package config loads the catalog-api settings: an optional YAML file named
// by CONFIG_FILE, overridden field by field by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	StoreDriver string `yaml:"store_driver"`

	Mongo  MongoConfig `yaml:"mongo"`
	Limits Limits      `yaml:"limits"`

	RedisAddr      string        `yaml:"redis_addr"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	SagaLogPath    string        `yaml:"saga_log_path"`

	OTelEnabled bool   `yaml:"otel_enabled"`
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	Version     string `yaml:"version"`
}

type MongoConfig struct {
	URL                    string        `yaml:"url"`
	Database               string        `yaml:"database"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	SocketTimeout          time.Duration `yaml:"socket_timeout"`
	MaxPoolSize            uint64        `yaml:"max_pool_size"`
	MinPoolSize            uint64        `yaml:"min_pool_size"`
	RetryWrites            bool          `yaml:"retry_writes"`
	DirectConnection       bool          `yaml:"direct_connection"`
}

type Limits struct {
	DefaultPageSize    int  `yaml:"default_page_size"`
	MaxPageSize        int  `yaml:"max_page_size"`
	MaxOrderItems      int  `yaml:"max_order_items"`
	MaxItemQuantity    int  `yaml:"max_item_quantity"`
	AllowPriceOverride bool `yaml:"allow_price_override"`
}

func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		GRPCAddr:    ":9090",
		StoreDriver: DriverMongo,
		Mongo: MongoConfig{
			URL:                    "mongodb://localhost:27017",
			Database:               "ecommerce_db",
			ServerSelectionTimeout: 30 * time.Second,
			ConnectTimeout:         30 * time.Second,
			SocketTimeout:          30 * time.Second,
			MaxPoolSize:            10,
			MinPoolSize:            1,
			RetryWrites:            true,
		},
		Limits: Limits{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			MaxOrderItems:   50,
			MaxItemQuantity: 100,
		},
		IdempotencyTTL: 24 * time.Hour,
		SagaLogPath:    "./data/saga.db",
		ServiceName:    "catalog-api",
		LogLevel:       "info",
		Version:        "1.0.0",
	}
}

// Load builds the configuration from defaults, the file named by CONFIG_FILE
// (if any) and the environment, in that order of precedence, lowest first.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	env := envReader{lookup: lookup}
	env.str("HTTP_ADDR", &cfg.HTTPAddr)
	env.str("GRPC_ADDR", &cfg.GRPCAddr)
	env.str("STORE_DRIVER", &cfg.StoreDriver)

	env.str("MONGODB_URL", &cfg.Mongo.URL)
	env.str("DATABASE_NAME", &cfg.Mongo.Database)
	env.millis("MONGODB_SERVER_SELECTION_TIMEOUT_MS", &cfg.Mongo.ServerSelectionTimeout)
	env.millis("MONGODB_CONNECT_TIMEOUT_MS", &cfg.Mongo.ConnectTimeout)
	env.millis("MONGODB_SOCKET_TIMEOUT_MS", &cfg.Mongo.SocketTimeout)
	env.unsigned("MONGODB_MAX_POOL_SIZE", &cfg.Mongo.MaxPoolSize)
	env.unsigned("MONGODB_MIN_POOL_SIZE", &cfg.Mongo.MinPoolSize)
	env.boolean("MONGODB_RETRY_WRITES", &cfg.Mongo.RetryWrites)
	env.boolean("MONGODB_DIRECT_CONNECTION", &cfg.Mongo.DirectConnection)

	env.integer("DEFAULT_PAGE_SIZE", &cfg.Limits.DefaultPageSize)
	env.integer("MAX_PAGE_SIZE", &cfg.Limits.MaxPageSize)
	env.integer("MAX_ORDER_ITEMS", &cfg.Limits.MaxOrderItems)
	env.integer("MAX_ITEM_QUANTITY", &cfg.Limits.MaxItemQuantity)
	env.boolean("ALLOW_PRICE_OVERRIDE", &cfg.Limits.AllowPriceOverride)

	env.str("REDIS_ADDR", &cfg.RedisAddr)
	env.duration("IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
	env.str("SAGALOG_PATH", &cfg.SagaLogPath)

	env.boolean("OTEL_ENABLED", &cfg.OTelEnabled)
	env.str("OTEL_SERVICE_NAME", &cfg.ServiceName)
	env.str("LOG_LEVEL", &cfg.LogLevel)
	env.str("APP_VERSION", &cfg.Version)

	if err := env.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.Mongo.URL == "" || c.Mongo.Database == "" {
			errs = append(errs, errors.New("MONGODB_URL and DATABASE_NAME are required for the mongo driver"))
		}
		if c.Mongo.MinPoolSize > c.Mongo.MaxPoolSize {
			errs = append(errs, fmt.Errorf("MONGODB_MIN_POOL_SIZE (%d) exceeds MONGODB_MAX_POOL_SIZE (%d)", c.Mongo.MinPoolSize, c.Mongo.MaxPoolSize))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Limits.MaxPageSize < 1 {
		errs = append(errs, errors.New("MAX_PAGE_SIZE must be positive"))
	}
	if c.Limits.DefaultPageSize < 1 || c.Limits.DefaultPageSize > c.Limits.MaxPageSize {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and %d", c.Limits.MaxPageSize))
	}
	if c.Limits.MaxOrderItems < 1 {
		errs = append(errs, errors.New("MAX_ORDER_ITEMS must be positive"))
	}
	if c.Limits.MaxItemQuantity < 1 {
		errs = append(errs, errors.New("MAX_ITEM_QUANTITY must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// envReader applies environment overrides and collects every value that
// fails to parse.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (r *envReader) unsigned(key string, dst *uint64) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (r *envReader) millis(key string, dst *time.Duration) {
	ms := -1
	r.integer(key, &ms)
	if ms >= 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (r *envReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(r.errs...))
}
