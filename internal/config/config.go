package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Port the HTTP server listens on.
	// Environment variable: PORT
	Port string `koanf:"PORT"`

	// DBConnectionString is the pgx connection string for the reporting database.
	// Environment variable: DB_CONNECTION_STRING
	DBConnectionString string `koanf:"DB_CONNECTION_STRING"`

	// ReportingCurrency is the currency every report figure is expressed in.
	// Environment variable: REPORTING_CURRENCY
	ReportingCurrency string `koanf:"REPORTING_CURRENCY"`

	// MinReportYear and MaxReportYear bound the reportable period (inclusive).
	// Environment variables: MIN_REPORT_YEAR, MAX_REPORT_YEAR
	MinReportYear int `koanf:"MIN_REPORT_YEAR"`
	MaxReportYear int `koanf:"MAX_REPORT_YEAR"`

	// NBPAPIURL overrides the exchange-rate API base URL, mainly for tests.
	// Environment variable: NBP_API_URL
	NBPAPIURL string `koanf:"NBP_API_URL"`
}

// Load reads configuration from the environment and applies defaults.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ReportingCurrency == "" {
		cfg.ReportingCurrency = "PLN"
	}
	if cfg.MinReportYear == 0 {
		cfg.MinReportYear = 2020
	}
	if cfg.MaxReportYear == 0 {
		cfg.MaxReportYear = 2030
	}
	if cfg.MaxReportYear < cfg.MinReportYear {
		return nil, fmt.Errorf("MAX_REPORT_YEAR (%d) is below MIN_REPORT_YEAR (%d)", cfg.MaxReportYear, cfg.MinReportYear)
	}
	return &cfg, nil
}
