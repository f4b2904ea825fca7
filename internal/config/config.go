package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "LEDGER_"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverBolt     = "bolt"
)

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Biller   BillerConfig   `koanf:"biller"`
	Retry    RetryConfig    `koanf:"retry"`
	Logger   LoggerConfig   `koanf:"logger"`
	Worker   WorkerConfig   `koanf:"worker"`
	// TablesFile is an optional YAML file with reason-code and redaction overrides.
	TablesFile string `koanf:"tables_file"`
}

type WorkerConfig struct {
	Interval       time.Duration `koanf:"interval" validate:"required"`
	BatchSize      int           `koanf:"batch_size" validate:"required"`
	PendingTimeout time.Duration `koanf:"pending_timeout" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type StoreConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=postgres bolt"`
	BoltPath string `koanf:"bolt_path"`
}

type BillerConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
	Breaker     BreakerConfig `koanf:"breaker"`
}

// BreakerConfig drives the circuit breaker around every biller call.
type BreakerConfig struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32 `koanf:"max_failures" validate:"required"`
	// OpenTimeout is the cool-down before the breaker lets a probe through.
	OpenTimeout         time.Duration `koanf:"open_timeout" validate:"required"`
	HalfOpenMaxRequests uint32        `koanf:"half_open_max_requests" validate:"required"`
	// Interval clears the failure counts while closed; zero never clears them.
	Interval time.Duration `koanf:"interval"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries"`
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                           "development",
		"server.port":                           "8080",
		"server.read_timeout":                   "10s",
		"server.write_timeout":                  "10s",
		"server.idle_timeout":                   "60s",
		"server.request_timeout":                "30s",
		"database.port":                         5432,
		"database.ssl_mode":                     "disable",
		"database.max_open_conns":               10,
		"database.max_idle_conns":               2,
		"database.conn_max_lifetime":            "1h",
		"database.conn_max_idle_time":           "15m",
		"store.driver":                          StoreDriverPostgres,
		"store.bolt_path":                       "ledger.db",
		"biller.conn_timeout":                   "30s",
		"biller.breaker.max_failures":           5,
		"biller.breaker.open_timeout":           "30s",
		"biller.breaker.half_open_max_requests": 1,
		"retry.base_delay":                      "500ms",
		"retry.max_retries":                     3,
		"logger.level":                          "info",
		"logger.format":                         "text",
		"worker.interval":                       "1m",
		"worker.batch_size":                     100,
		"worker.pending_timeout":                "30m",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load config defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks the struct tags. Database settings are only required by the postgres store.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.StructExcept(c, "Database"); err != nil {
		return err
	}
	if c.Store.Driver == StoreDriverPostgres {
		return validate.Struct(c.Database)
	}
	return nil
}
