package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
)

// Default returns the baseline configuration used when the file omits fields.
func Default() Config {
	return Config{
		Schedule: ScheduleConfig{Hour: 9, Minute: 0, Timezone: "UTC", RunTimeout: "10m"},
		Storage:  StorageConfig{Driver: "sqlite", Path: "data/leetdrip.db", BusyTimeout: "5s"},
		Catalog:  CatalogConfig{Path: "data/problems.json"},
		LLM:      LLMConfig{Provider: "openai", Model: "gpt-4o-mini", MaxTokens: 2000, Embellish: true, Temp: 0.3},
		Mail:     MailConfig{Provider: "mock"},
		Delivery: DeliveryConfig{Workers: 4, RatePerSec: 2, Selection: "lowest", EmbellishPolicy: "degrade"},
		Logging:  LoggingConfig{Level: "info", Console: true},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9090"},
	}
}

// Load reads the config file (YAML or JSON), applies environment overrides for
// secrets, and validates the result. Unknown keys are rejected so typos fail
// fast instead of silently falling back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	j, format, err := coerceToJSONBytes(path, raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s config %s: %w", format, path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers secret values from the environment over the file config.
// Only fields tagged with env keys participate; the file never has to carry
// credentials.
func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("apply env overrides: %w", err)
	}
	return nil
}
