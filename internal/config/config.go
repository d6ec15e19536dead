package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	APIPort           string `yaml:"api_port" env:"API_PORT"`
	APIMaxConnections int    `yaml:"api_max_connections" env:"API_MAX_CONNECTIONS"`
	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL"`

	ConversionLogPath string `yaml:"conversion_log_path" env:"CONVERSION_LOG_PATH"`
	DisplayPrecision  int    `yaml:"display_precision" env:"DISPLAY_PRECISION"`

	AuthEnabled        bool    `yaml:"auth_enabled" env:"AUTH_ENABLED"`
	CredentialStore    string  `yaml:"credential_store" env:"CREDENTIAL_STORE"`
	SQLitePath         string  `yaml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresDSN        string  `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	BcryptCost         int     `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	SessionTTLMinutes  int     `yaml:"session_ttl_minutes" env:"SESSION_TTL_MINUTES"`
	AuthRateLimitRPS   float64 `yaml:"auth_rate_limit_rps" env:"AUTH_RATE_LIMIT_RPS"`
	AuthRateLimitBurst int     `yaml:"auth_rate_limit_burst" env:"AUTH_RATE_LIMIT_BURST"`

	NATSURL       string `yaml:"nats_url" env:"NATS_URL"`
	NATSSubject   string `yaml:"nats_subject" env:"NATS_SUBJECT"`
	WorkerLogPath string `yaml:"worker_log_path" env:"WORKER_LOG_PATH"`

	WorkerMetricsPort string `yaml:"worker_metrics_port" env:"WORKER_METRICS_PORT"`
}

func Default() Config {
	return Config{
		APIPort:           "8080",
		APIMaxConnections: 512,
		LogLevel:          "info",

		ConversionLogPath: "logs/unit_converter.log",
		DisplayPrecision:  6,

		AuthEnabled:        false,
		CredentialStore:    StoreSQLite,
		SQLitePath:         "data/users.db",
		BcryptCost:         10,
		SessionTTLMinutes:  60,
		AuthRateLimitRPS:   1,
		AuthRateLimitBurst: 5,

		NATSSubject:   "unitconverter.conversions",
		WorkerLogPath: "logs/unit_converter_worker.log",

		WorkerMetricsPort: "9090",
	}
}

// Load layers defaults, the optional YAML file at path and the environment,
// in that order. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	return c.Read(f)
}

// Read decodes YAML over the current values. Keys absent from r keep theirs.
func (c *Config) Read(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.CredentialStore {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres credential store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CREDENTIAL_STORE %q", c.CredentialStore))
	}
	if c.DisplayPrecision < 0 || c.DisplayPrecision > 15 {
		errs = append(errs, fmt.Errorf("DISPLAY_PRECISION must be within 0-15, got %d", c.DisplayPrecision))
	}
	if strings.TrimSpace(c.ConversionLogPath) == "" {
		errs = append(errs, errors.New("CONVERSION_LOG_PATH is required"))
	}
	if c.APIMaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("API_MAX_CONNECTIONS must be positive, got %d", c.APIMaxConnections))
	}
	if c.SessionTTLMinutes <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_MINUTES must be positive"))
	}
	if c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}
