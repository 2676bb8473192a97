package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Mock    MockConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOUTIQ_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"BOUTIQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOUTIQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"BOUTIQ_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"BOUTIQ_API_TIMEOUT" default:"10s"`

	// The backend exposes the payment confirmation route under a misspelled
	// segment ("comfirm") in its published surface. Whichever spelling the
	// deployed backend actually serves wins, so the path stays configurable
	// instead of hardcoding a guess.
	PaymentConfirmPath string `envconfig:"BOUTIQ_API_PAYMENT_CONFIRM_PATH" default:"/api/payments/{id}/comfirm"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url", EnvAPIBaseURL)
	}
	if !strings.Contains(a.PaymentConfirmPath, "{id}") {
		return fmt.Errorf("%s must contain an {id} placeholder", EnvPaymentConfirmPath)
	}
	return nil
}

type StorageConfig struct {
	Driver     string `envconfig:"BOUTIQ_STORAGE_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"BOUTIQ_STORAGE_SQLITE_PATH" default:"boutiq.db"`

	RedisURL          string        `envconfig:"BOUTIQ_STORAGE_REDIS_URL"`
	RedisDialTimeout  time.Duration `envconfig:"BOUTIQ_STORAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	RedisReadTimeout  time.Duration `envconfig:"BOUTIQ_STORAGE_REDIS_READ_TIMEOUT" default:"5s"`
	RedisWriteTimeout time.Duration `envconfig:"BOUTIQ_STORAGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("%s is required for the sqlite driver", EnvStorageSQLitePath)
		}
	case StorageDriverRedis:
		if strings.TrimSpace(s.RedisURL) == "" {
			return fmt.Errorf("%s is required for the redis driver", EnvStorageRedisURL)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}
	return nil
}

type MockConfig struct {
	Port string `envconfig:"BOUTIQ_MOCK_PORT" default:"8080"`
}
