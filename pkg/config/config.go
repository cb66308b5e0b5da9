// Package config provides the unified configuration system for ratepipe.
// Every job reads its settings from a single Config structure whose defaults
// are hardcoded, so the rates pipeline runs with no configuration at all.
//
// The configuration is organized into logical sections:
//   - Rates: source endpoint and connector selection for the rates pipeline
//   - SQLite: embedded database file and destination table
//   - JSON: output file for the json rates destination
//   - Postgres: connection settings shared by the postgresql destination and superstore jobs
//   - Superstore: CSV dataset location and report output directory
//   - Logging: log level and encoding
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.SQLite.Path = "/var/lib/ratepipe/rates.db"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

const (
	// DefaultRatesEndpoint is the NBRB official rates endpoint
	DefaultRatesEndpoint = "https://api.nbrb.by/exrates/rates"
	// DefaultRatesTable is the destination table for normalized rates
	DefaultRatesTable = "nbrb_currency_rates"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is the single configuration structure shared by all commands.
type Config struct {
	Rates      RatesConfig      `mapstructure:"rates" yaml:"rates"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite" yaml:"sqlite"`
	JSON       JSONConfig       `mapstructure:"json" yaml:"json"`
	Postgres   PostgresConfig   `mapstructure:"postgres" yaml:"postgres"`
	Superstore SuperstoreConfig `mapstructure:"superstore" yaml:"superstore"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// RatesConfig controls the rates pipeline.
type RatesConfig struct {
	// Endpoint is the rates URL without query parameters
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Periodicity is sent as the periodicity query parameter (0 = daily rates)
	Periodicity int `mapstructure:"periodicity" yaml:"periodicity"`
	// RequestTimeout bounds the HTTP request; zero means no timeout
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// Source names the registered source connector
	Source string `mapstructure:"source" yaml:"source"`
	// Destination names the registered destination connector
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// SQLiteConfig locates the embedded database.
type SQLiteConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Table string `mapstructure:"table" yaml:"table"`
}

// JSONConfig locates the json destination output.
type JSONConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// Format is "array" (one JSON document) or "lines" (NDJSON)
	Format string `mapstructure:"format" yaml:"format"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Name     string `mapstructure:"name" yaml:"name"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
	// RatesTable is the table replaced by the postgresql rates destination
	RatesTable string `mapstructure:"rates_table" yaml:"rates_table"`
	MaxConns   int32  `mapstructure:"max_conns" yaml:"max_conns"`
}

// SuperstoreConfig controls the superstore load and report commands.
type SuperstoreConfig struct {
	CSVPath string `mapstructure:"csv_path" yaml:"csv_path"`
	Table   string `mapstructure:"table" yaml:"table"`
	// Limit caps the rows loaded from the CSV; zero loads everything
	Limit      int    `mapstructure:"limit" yaml:"limit"`
	ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir"`
}

// LoggingConfig controls the process-wide logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		Rates: RatesConfig{
			Endpoint:    DefaultRatesEndpoint,
			Periodicity: 0,
			Source:      "nbrb",
			Destination: "sqlite",
		},
		SQLite: SQLiteConfig{
			Path:  "nbrb_rates.db",
			Table: DefaultRatesTable,
		},
		JSON: JSONConfig{
			Path:   "nbrb_rates.json",
			Format: "array",
			Pretty: true,
		},
		Postgres: PostgresConfig{
			Host:       "localhost",
			Port:       5432,
			Name:       "superstore",
			User:       "postgres",
			Password:   "postgres",
			SSLMode:    "disable",
			RatesTable: DefaultRatesTable,
			MaxConns:   4,
		},
		Superstore: SuperstoreConfig{
			CSVPath:    "data/raw/SampleSuperstore.csv",
			Table:      "superstore",
			Limit:      0,
			ReportsDir: "reports",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Rates.Endpoint == "" {
		return fmt.Errorf("rates.endpoint is required")
	}
	if _, err := url.ParseRequestURI(c.Rates.Endpoint); err != nil {
		return fmt.Errorf("rates.endpoint is not a valid URL: %w", err)
	}
	if c.Rates.RequestTimeout < 0 {
		return fmt.Errorf("rates.request_timeout cannot be negative")
	}
	if c.Rates.Source == "" {
		return fmt.Errorf("rates.source is required")
	}
	if c.Rates.Destination == "" {
		return fmt.Errorf("rates.destination is required")
	}
	if c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path is required")
	}
	if c.JSON.Format != "array" && c.JSON.Format != "lines" {
		return fmt.Errorf("json.format must be array or lines, got %q", c.JSON.Format)
	}
	for key, table := range map[string]string{
		"sqlite.table":         c.SQLite.Table,
		"postgres.rates_table": c.Postgres.RatesTable,
		"superstore.table":     c.Superstore.Table,
	} {
		if !identifierPattern.MatchString(table) {
			return fmt.Errorf("%s %q is not a valid table name", key, table)
		}
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return fmt.Errorf("postgres.port must be between 1 and 65535")
	}
	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("postgres.max_conns must be positive")
	}
	if c.Superstore.Limit < 0 {
		return fmt.Errorf("superstore.limit cannot be negative")
	}
	return nil
}

// ConnString returns a postgres:// URL for pgx.
func (p *PostgresConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   p.Host + ":" + strconv.Itoa(p.Port),
		Path:   "/" + p.Name,
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{p.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted returns a copy of the configuration with secrets masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Postgres.Password != "" {
		out.Postgres.Password = "******"
	}
	return &out
}
