package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every structured env var, e.g. TRIALBROKER_SERVER__PORT.
	EnvPrefix = "TRIALBROKER_"

	// EnvConfigFile names an optional YAML file loaded before the env vars.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// legacyEnv maps the plain variables deployments already set onto config keys.
var legacyEnv = map[string]string{
	"DATABASE_URL":  "database.url",
	"DATABASE_NAME": "database.name",
	"PORT":          "server.port",
}

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. the YAML file named by TRIALBROKER_CONFIG, if set
//  3. DATABASE_URL, DATABASE_NAME and PORT
//  4. TRIALBROKER_<SECTION>__<KEY> env vars
//
// The result is validated; any failure is returned rather than exiting.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("could not load config file %s: %w", path, err)
		}
	}

	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("could not apply %s: %w", name, err)
			}
		}
	}

	// TRIALBROKER_DATABASE__MAX_POOL_SIZE -> database.max_pool_size
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Decoding onto the defaults keeps every key the sources left unset.
	// Env values are plain strings: "a,b" fills a []string and "10s" a
	// time.Duration.
	cfg := New()
	err = k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// Force service name and environment regardless of what was set, so
	// tracing and logging see consistent naming.
	cfg.Observability.ServiceName = ServiceName
	cfg.Observability.Environment = cfg.Primary.Env

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return cfg, nil
}
