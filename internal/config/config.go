// Package config loads runtime settings from the environment.
//
// Every variable carries the MURDER_ prefix. A .env file in the working
// directory is read first if present; variables already set in the
// environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/roach88/murder/internal/codes"
	"github.com/roach88/murder/internal/notify"
)

// Prefix is prepended to every environment variable name.
const Prefix = "MURDER_"

// Transport selects where mission updates go.
type Transport string

const (
	TransportLog  Transport = "log"
	TransportSMTP Transport = "smtp"
	TransportNATS Transport = "nats"
	TransportNone Transport = "none"
)

// Config holds everything the command line needs besides its flags.
type Config struct {
	DBPath string `env:"DB" envDefault:"murder.db"`

	// SecretKey keys the derivation of secret codes. Without it no codes
	// are issued and murders cannot be confirmed by code.
	SecretKey  string `env:"SECRET_KEY"`
	CorpusPath string `env:"CORPUS"`
	CodeLength int    `env:"CODE_LENGTH" envDefault:"8"`
	Iterations int    `env:"PBKDF2_ITERATIONS" envDefault:"100000"`

	CacheDir string `env:"CACHE_DIR" envDefault:"cache"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Transports lists where updates go, comma separated. Several
	// transports all receive every update.
	Transports []Transport       `env:"NOTIFY" envDefault:"log"`
	SMTP       notify.SMTPConfig `envPrefix:"SMTP_"`
	NATS       NATSConfig        `envPrefix:"NATS_"`
}

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL     string `env:"URL" envDefault:"nats://127.0.0.1:4222"`
	Subject string `env:"SUBJECT" envDefault:"murder.updates"`
}

// Load reads envFile (or .env when empty, ignoring its absence) and parses
// the environment into a Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the Config from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for i, t := range cfg.Transports {
		cfg.Transports[i] = Transport(strings.TrimSpace(string(t)))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env cannot check by type alone.
func (c Config) Validate() error {
	if len(c.Transports) == 0 {
		return fmt.Errorf("%sNOTIFY is empty: want log, smtp, nats or none", Prefix)
	}
	for _, t := range c.Transports {
		switch t {
		case TransportLog, TransportSMTP, TransportNATS:
		case TransportNone:
			if len(c.Transports) > 1 {
				return fmt.Errorf("invalid %sNOTIFY: none cannot be combined with other transports", Prefix)
			}
		default:
			return fmt.Errorf("invalid %sNOTIFY %q: want log, smtp, nats or none", Prefix, t)
		}
	}
	if c.CodeLength <= 0 {
		return fmt.Errorf("invalid %sCODE_LENGTH %d: must be positive", Prefix, c.CodeLength)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("invalid %sPBKDF2_ITERATIONS %d: must be positive", Prefix, c.Iterations)
	}
	if c.Uses(TransportSMTP) && c.SMTP.From == "" {
		return fmt.Errorf("%sSMTP_FROM is required for the smtp transport", Prefix)
	}
	return nil
}

// Uses reports whether updates are sent over t.
func (c Config) Uses(t Transport) bool {
	return slices.Contains(c.Transports, t)
}

// Codes builds the secret code provider, or returns nil when no secret key
// is configured.
func (c Config) Codes() (*codes.Provider, error) {
	if c.SecretKey == "" {
		return nil, nil
	}
	gen := codes.Default()
	if c.CorpusPath != "" {
		var err error
		if gen, err = codes.LoadFile(c.CorpusPath); err != nil {
			return nil, err
		}
	}
	return codes.NewProvider(gen, c.SecretKey, c.CodeLength, c.Iterations), nil
}
