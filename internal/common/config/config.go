package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Credential store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	API struct {
		BaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
		Timeout    time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
		AppVersion string        `env:"APP_VERSION" envDefault:"1.0.0"`
	}

	Credentials struct {
		Store      string `env:"CREDENTIAL_STORE" envDefault:"file"`
		FilePath   string `env:"CREDENTIAL_FILE"`
		SQLitePath string `env:"CREDENTIAL_SQLITE_PATH"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		Prefix   string `env:"REDIS_PREFIX" envDefault:"trafficctl:"`
	}

	// Withdraw limits shared by every screen. The backend enforces its own copy.
	Withdraw struct {
		MinUSD  float64 `env:"MIN_WITHDRAW_USD" envDefault:"1.39"`
		MaxUSD  float64 `env:"MAX_WITHDRAW_USD" envDefault:"100"`
		Network string  `env:"WITHDRAW_NETWORK" envDefault:"BEP20"`
	}

	Session struct {
		TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL" envDefault:"3s"`
		LivePingInterval  time.Duration `env:"LIVE_PING_INTERVAL" envDefault:"25s"`
	}

	DevServer struct {
		Port   int    `env:"DEVSERVER_PORT" envDefault:"8080"`
		Origin string `env:"DEVSERVER_ORIGIN" envDefault:"*"`
		Secret string `env:"DEVSERVER_JWT_SECRET" envDefault:"dev-secret"`

		// Balance credited to every new account
		StartBalance float64 `env:"DEVSERVER_START_BALANCE" envDefault:"0"`
	}
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional, production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for binaries that cannot start without configuration
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) normalize() error {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is empty")
	}

	switch c.Credentials.Store {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid CREDENTIAL_STORE %q", c.Credentials.Store)
	}

	if c.Withdraw.MinUSD <= 0 {
		return fmt.Errorf("MIN_WITHDRAW_USD must be positive")
	}
	if c.Withdraw.MaxUSD < c.Withdraw.MinUSD {
		return fmt.Errorf("MAX_WITHDRAW_USD below MIN_WITHDRAW_USD")
	}
	if c.Session.TelemetryInterval <= 0 {
		return fmt.Errorf("TELEMETRY_INTERVAL must be positive")
	}

	dir := defaultDataDir()
	if c.Credentials.FilePath == "" {
		c.Credentials.FilePath = filepath.Join(dir, "credentials.json")
	}
	if c.Credentials.SQLitePath == "" {
		c.Credentials.SQLitePath = filepath.Join(dir, "credentials.db")
	}
	return nil
}

// RedisAddr returns host:port for the redis credential store.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".trafficctl"
	}
	return filepath.Join(home, ".trafficctl")
}
