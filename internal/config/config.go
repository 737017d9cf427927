// Package config loads the server settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Lock backends
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config holds all the configuration variables for the ledger server.
type Config struct {
	GRPCPort  string `mapstructure:"GRPC_PORT"`
	APIToken  string `mapstructure:"API_TOKEN"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	StorageDriver     string `mapstructure:"STORAGE_DRIVER"`
	DBConnStr         string `mapstructure:"DB_CONN_STR"`
	DBHost            string `mapstructure:"DB_HOST"`
	DBPort            string `mapstructure:"DB_PORT"`
	DBUser            string `mapstructure:"DB_USER"`
	DBPassword        string `mapstructure:"DB_PASSWORD"`
	DBName            string `mapstructure:"DB_NAME"`
	DBMaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnectAttempts int    `mapstructure:"DB_CONNECT_ATTEMPTS"`
	RunMigrations     bool   `mapstructure:"RUN_MIGRATIONS"`
	CommitMaxAttempts int    `mapstructure:"COMMIT_MAX_ATTEMPTS"`

	LockBackend    string        `mapstructure:"LOCK_BACKEND"`
	LockTimeout    time.Duration `mapstructure:"LOCK_TIMEOUT"`
	LockExpiry     time.Duration `mapstructure:"LOCK_EXPIRY"`
	LockRetryDelay time.Duration `mapstructure:"LOCK_RETRY_DELAY"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	SeedCustomers string `mapstructure:"SEED_CUSTOMERS"`
}

var defaults = map[string]interface{}{
	"GRPC_PORT":           "8080",
	"API_TOKEN":           "dev-token",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"STORAGE_DRIVER":      StoragePostgres,
	"DB_CONN_STR":         "",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "ledger",
	"DB_MAX_OPEN_CONNS":   25,
	"DB_CONNECT_ATTEMPTS": 10,
	"RUN_MIGRATIONS":      true,
	"COMMIT_MAX_ATTEMPTS": 3,
	"LOCK_BACKEND":        LockLocal,
	"LOCK_TIMEOUT":        "5s",
	"LOCK_EXPIRY":         "10s",
	"LOCK_RETRY_DELAY":    "50ms",
	"REDIS_ADDR":          "localhost:6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"RABBITMQ_URL":        "",
	"EVENTS_EXCHANGE":     "ledger_events",
	"SEED_CUSTOMERS":      "",
}

// LoadConfig reads configuration from environment variables, falling back
// to a .env file in path and then to defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	// Tell viper the path to look for the optional .env file.
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", c.StorageDriver, StoragePostgres, StorageMemory)
	}

	switch c.LockBackend {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q (want %s or %s)", c.LockBackend, LockLocal, LockRedis)
	}

	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", c.LockTimeout)
	}

	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN must not be empty")
	}

	if _, err := c.Customers(); err != nil {
		return err
	}

	return nil
}

// ConnString returns DB_CONN_STR, or builds one from the individual DB_* settings
func (c Config) ConnString() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// ListenAddr is the TCP address the gRPC server binds to
func (c Config) ListenAddr() string {
	return ":" + strings.TrimPrefix(c.GRPCPort, ":")
}

// Customers parses SEED_CUSTOMERS, a comma separated list of id:name pairs
func (c Config) Customers() ([]domain.Customer, error) {
	raw := strings.TrimSpace(c.SeedCustomers)
	if raw == "" {
		return nil, nil
	}

	var customers []domain.Customer
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		idPart, name, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid SEED_CUSTOMERS entry %q: want id:name", entry)
		}

		id, err := domain.ParseCustomerID(strings.TrimSpace(idPart))
		if err != nil {
			return nil, fmt.Errorf("invalid SEED_CUSTOMERS id %q: %w", idPart, err)
		}

		customer := domain.Customer{ID: id, Name: strings.TrimSpace(name)}
		if err := customer.Validate(); err != nil {
			return nil, fmt.Errorf("invalid SEED_CUSTOMERS entry %q: %w", entry, err)
		}
		customers = append(customers, customer)
	}

	return customers, nil
}
