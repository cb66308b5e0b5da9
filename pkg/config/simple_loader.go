package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. RATEPIPE_SQLITE_PATH.
const EnvPrefix = "RATEPIPE"

// legacyEnv maps the database variables used by the superstore scripts.
var legacyEnv = map[string]string{
	"postgres.host":     "DB_HOST",
	"postgres.port":     "DB_PORT",
	"postgres.name":     "DB_NAME",
	"postgres.user":     "DB_USER",
	"postgres.password": "DB_PASS",
}

// Load builds a Config from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty filePath skips the
// file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteYAML writes the configuration as YAML with secrets masked
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("rates.endpoint", d.Rates.Endpoint)
	v.SetDefault("rates.periodicity", d.Rates.Periodicity)
	v.SetDefault("rates.request_timeout", d.Rates.RequestTimeout)
	v.SetDefault("rates.source", d.Rates.Source)
	v.SetDefault("rates.destination", d.Rates.Destination)

	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("sqlite.table", d.SQLite.Table)

	v.SetDefault("json.path", d.JSON.Path)
	v.SetDefault("json.format", d.JSON.Format)
	v.SetDefault("json.pretty", d.JSON.Pretty)

	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.name", d.Postgres.Name)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.rates_table", d.Postgres.RatesTable)
	v.SetDefault("postgres.max_conns", d.Postgres.MaxConns)

	v.SetDefault("superstore.csv_path", d.Superstore.CSVPath)
	v.SetDefault("superstore.table", d.Superstore.Table)
	v.SetDefault("superstore.limit", d.Superstore.Limit)
	v.SetDefault("superstore.reports_dir", d.Superstore.ReportsDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
}
