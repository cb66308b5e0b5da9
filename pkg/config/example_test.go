package config_test

import (
	"fmt"
	"log"
	"os"

	"github.com/ratepipe/ratepipe/pkg/config"
)

// ExampleDefault demonstrates the hardcoded defaults used by the rates pipeline.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Source: %s\n", cfg.Rates.Source)
	fmt.Printf("Destination: %s\n", cfg.Rates.Destination)
	fmt.Printf("Database: %s\n", cfg.SQLite.Path)
	fmt.Printf("Table: %s\n", cfg.SQLite.Table)

	// Output:
	// Source: nbrb
	// Destination: sqlite
	// Database: nbrb_rates.db
	// Table: nbrb_currency_rates
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.SQLite.Table = "rates; DROP TABLE users"

	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// sqlite.table "rates; DROP TABLE users" is not a valid table name
}

// ExampleWriteYAML prints the effective configuration with the password masked.
func ExampleWriteYAML() {
	cfg := config.Default()

	if err := config.WriteYAML(os.Stdout, &config.Config{Postgres: cfg.Postgres}); err != nil {
		log.Fatal(err)
	}
}
