package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// New loads the JSON config at loc, then applies overrides from an optional
// .env file next to the process and from the environment.
func New(loc string, envFiles ...string) (*Config, error) {
	var c Config

	f, err := os.Open(loc)
	if err != nil {
		log.WithError(err).Error("config error")
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c); err != nil {
		log.WithError(err).Error("config error")
		return nil, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, fn := range envFiles {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(fn); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", fn, err)
		}
	}

	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

type Config struct {
	Host string `json:"host" env:"DEALS_HOST"`
	Port string `json:"port" env:"DEALS_PORT"`

	DBPath string `json:"dbPath" env:"DEALS_DB_PATH"`
	DBName string `json:"dbName" env:"DEALS_DB_NAME"`

	Sandbox bool `json:"sandbox" env:"DEALS_SANDBOX"`

	LogLevel  string `json:"logLevel" env:"DEALS_LOG_LEVEL"`
	LogFormat string `json:"logFormat" env:"DEALS_LOG_FORMAT"` // text or json

	// Request paths the access log skips
	SkipLogPrefixes []string `json:"skipLogPrefixes"`

	Bucket struct {
		Deal  string `json:"deal"`
		Index string `json:"index"`
	} `json:"bucket"`
}

func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("%w: port is required", ErrInvalidConfig)
	case c.DBName == "":
		return fmt.Errorf("%w: dbName is required", ErrInvalidConfig)
	case c.Bucket.Deal == "" || c.Bucket.Index == "":
		return fmt.Errorf("%w: bucket names are required", ErrInvalidConfig)
	case c.Bucket.Deal == c.Bucket.Index:
		return fmt.Errorf("%w: deal and index buckets must differ", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown logFormat %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return c.Host + ":" + c.Port }

// Buckets lists every bolt bucket the server needs.
func (c *Config) Buckets() []string { return []string{c.Bucket.Deal, c.Bucket.Index} }

// Logger configures the standard logrus logger from the config and returns it.
func (c *Config) Logger() *log.Logger {
	l := log.StandardLogger()
	if strings.EqualFold(c.LogFormat, "json") {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	return l
}
