// Package config manages the application configuration.
//
// It layers compiled defaults, an optional YAML file and environment
// variables (optionally from a `.env` file), loads them into structured Go
// types, and validates them so the app fails fast on bad config.
//
// Responsibilities:
//   - Provide defaults for every block (New).
//   - Map the YAML file and env vars onto the structs (Load).
//   - Keep the variables the service has always honoured (DATABASE_URL,
//     DATABASE_NAME, PORT) working alongside the prefixed ones.
//   - Validate the result with struct tags plus ObservabilityConfig.Validate.
package config

import (
	"time"
)

/*
	Key layout: nested struct fields map to koanf keys with "." as the
	delimiter, e.g. server.port -> Config.Server.Port.

	Prefixed env vars use "__" to separate sections so single underscores
	can stay inside key names:
	  TRIALBROKER_SERVER__READ_TIMEOUT -> server.read_timeout
*/

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags name the keys koanf maps values from. The
// `validate:"..."` tags are checked by go-playground/validator after
// loading.
type Config struct {
	Primary       Primary             `koanf:"primary" validate:"required"`
	Server        ServerConfig        `koanf:"server" validate:"required"`
	Database      DatabaseConfig      `koanf:"database" validate:"required"`
	Observability ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and to switch behavior such as local command logging.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"gte=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"gte=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"gte=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DatabaseConfig describes the document store.
//
// URL and Name are optional: without them the service still starts, but
// create and list report the store as not configured.
type DatabaseConfig struct {
	Driver         string        `koanf:"driver" validate:"required,oneof=mongo memory"`
	URL            string        `koanf:"url"`
	Name           string        `koanf:"name"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"min=1s"`
	MaxPoolSize    uint64        `koanf:"max_pool_size" validate:"gte=1"`
}

// IsConfigured reports whether a store can be opened with these settings.
// The memory driver only needs a name.
func (d DatabaseConfig) IsConfigured() bool {
	if d.Driver == DriverMemory {
		return d.Name != ""
	}
	return d.URL != "" && d.Name != ""
}

// New returns a Config holding the compiled defaults.
func New() *Config {
	return &Config{
		Primary: Primary{
			Env: "development",
		},
		Server: ServerConfig{
			Port:               "8000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:         DriverMongo,
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
		},
		Observability: *DefaultObservabilityConfig(),
	}
}
