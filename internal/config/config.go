// Package config loads the dashboard server configuration from the
// environment. An optional .env file is read first and never overrides values
// already present in the process environment.
package config

import (
	"fmt"
	"time"
)

// Config is the process configuration for the dashboard server.
type Config struct {
	// Data access
	APIHost      string        `envconfig:"CASES_PER_TEST_API_HOST" validate:"omitempty,url"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s" validate:"gt=0"`

	// Map
	MapboxAccessToken string `envconfig:"MAPBOX_ACCESS_TOKEN"`
	BoundariesPath    string `envconfig:"BOUNDARIES_PATH"`
	AssetsHost        string `envconfig:"ECHARTS_ASSETS_HOST" validate:"omitempty,url"`
	ChartTheme        string `envconfig:"CHART_THEME" default:"westeros"`

	// Server
	HTTPAddr   string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	OpsAddr    string        `envconfig:"OPS_ADDR" default:":9090"`
	BasePath   string        `envconfig:"BASE_PATH" default:"/dashboard" validate:"required,startswith=/"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m" validate:"gt=0"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// Unconfigured lists settings that are empty but degrade the dashboard when
// missing. The server still starts; the affected parts render an error state.
func (c *Config) Unconfigured() []string {
	var missing []string
	if c.APIHost == "" {
		missing = append(missing, "CASES_PER_TEST_API_HOST")
	}
	if c.MapboxAccessToken == "" {
		missing = append(missing, "MAPBOX_ACCESS_TOKEN")
	}
	if c.BoundariesPath == "" {
		missing = append(missing, "BOUNDARIES_PATH")
	}
	return missing
}

// ConfigErrorType classifies configuration failures.
type ConfigErrorType string

const (
	// ErrDotenv indicates an explicitly requested .env file could not be read.
	ErrDotenv ConfigErrorType = "DOTENV_FAILED"
	// ErrParsing indicates an environment value could not be parsed.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is returned by Load.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
