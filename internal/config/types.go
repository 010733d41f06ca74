package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the process-wide configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	Schedule  ScheduleConfig  `json:"schedule"`
	Storage   StorageConfig   `json:"storage"`
	Catalog   CatalogConfig   `json:"catalog"`
	LLM       LLMConfig       `json:"llm"`
	Mail      MailConfig      `json:"mail"`
	Delivery  DeliveryConfig  `json:"delivery"`
	Languages []string        `json:"languages,omitempty"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
}

// ScheduleConfig controls the daily trigger.
//
// Missed fires are never replayed after a restart; the scheduler resumes from
// the next future occurrence. RunOnStart is the only way to get an immediate
// run out of the daemon, and it must be asked for explicitly.
type ScheduleConfig struct {
	Hour     int    `json:"hour"`
	Minute   int    `json:"minute"`
	Timezone string `json:"timezone,omitempty"` // IANA TZ, e.g. "Europe/Berlin"

	RunOnStart bool `json:"run_on_start,omitempty"`

	// RunTimeout is a Go duration string (e.g. "10m") bounding one full run.
	// Use "0s" to disable.
	RunTimeout string `json:"run_timeout,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": in-process store, lost on exit (dev/tests)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// CatalogConfig points at the problem catalog document used by init-data.
// When Watch is set, the scheduler daemon re-imports the document on change.
type CatalogConfig struct {
	Path  string `json:"path"`
	Watch bool   `json:"watch,omitempty"`
}

// LLMConfig configures the text-generation collaborator.
type LLMConfig struct {
	Provider  string  `json:"provider"` // "openai" or "anthropic"
	APIKey    string  `json:"api_key,omitempty" env:"LLM_API_KEY"`
	BaseURL   string  `json:"base_url,omitempty"` // OpenAI-compatible endpoints only
	Model     string  `json:"model,omitempty"`
	MaxTokens int     `json:"max_tokens,omitempty"`
	Embellish bool    `json:"embellish"`
	Temp      float64 `json:"temperature,omitempty"`
}

// MailConfig configures the outbound send collaborator.
//
// Provider values:
//   - "gmail": Gmail API, needs CredentialsJSON
//   - "telegram": Telegram bot, needs TelegramToken; subscriber identities
//     must look like "tg:<chat-id>"
//   - "mock": logs instead of sending (dev/tests)
type MailConfig struct {
	Provider        string `json:"provider"`
	From            string `json:"from,omitempty"`
	CredentialsJSON string `json:"credentials_json,omitempty" env:"GMAIL_CREDENTIALS_JSON"`
	TelegramToken   string `json:"telegram_token,omitempty" env:"TELEGRAM_BOT_TOKEN"`
}

// DeliveryConfig tunes the per-run execution.
type DeliveryConfig struct {
	Workers    int    `json:"workers,omitempty"`      // default 4
	RatePerSec int    `json:"rate_per_sec,omitempty"` // default 2; pipeline starts per second
	Selection  string `json:"selection,omitempty"`    // "lowest" (default) or "random"

	// EmbellishPolicy: "degrade" (default) sends the plain solution when the
	// embellish stage fails; "fail" treats the failure as fatal to the pipeline.
	EmbellishPolicy string `json:"embellish_policy,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig controls the optional Prometheus endpoint (scheduler mode).
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:9090"
}

// DefaultLanguages is the supported-language set when the config omits one.
var DefaultLanguages = []string{"python", "java", "cpp", "javascript", "go", "rust"}

// Validate checks everything that would otherwise only blow up mid-run.
func (c *Config) Validate() error {
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour: %d out of range 0-23", c.Schedule.Hour)
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute: %d out of range 0-59", c.Schedule.Minute)
	}
	if tz := strings.TrimSpace(c.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	if _, err := ParseDurationField("schedule.run_timeout", c.Schedule.RunTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.LLM.Provider)) {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider)
	}

	switch strings.ToLower(strings.TrimSpace(c.Mail.Provider)) {
	case "", "mock":
	case "gmail":
		if strings.TrimSpace(c.Mail.CredentialsJSON) == "" {
			return errors.New("mail.provider gmail requires credentials (GMAIL_CREDENTIALS_JSON)")
		}
	case "telegram":
		if strings.TrimSpace(c.Mail.TelegramToken) == "" {
			return errors.New("mail.provider telegram requires a bot token (TELEGRAM_BOT_TOKEN)")
		}
	default:
		return fmt.Errorf("mail.provider: unknown provider %q", c.Mail.Provider)
	}

	switch strings.ToLower(strings.TrimSpace(c.Delivery.EmbellishPolicy)) {
	case "", "degrade", "fail":
	default:
		return fmt.Errorf("delivery.embellish_policy: want degrade or fail, got %q", c.Delivery.EmbellishPolicy)
	}
	switch strings.ToLower(strings.TrimSpace(c.Delivery.Selection)) {
	case "", "lowest", "random":
	default:
		return fmt.Errorf("delivery.selection: want lowest or random, got %q", c.Delivery.Selection)
	}
	return nil
}

// RunTimeout returns the parsed run timeout (0 = disabled).
func (c *Config) RunTimeout() time.Duration {
	d, _ := ParseDurationField("schedule.run_timeout", c.Schedule.RunTimeout)
	return d
}

// Location resolves the schedule timezone; empty means UTC.
func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Schedule.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SupportedLanguages returns the configured set, or the default one.
func (c *Config) SupportedLanguages() []string {
	if len(c.Languages) > 0 {
		return c.Languages
	}
	return DefaultLanguages
}

// LanguageSupported reports whether lang is in the supported set.
func (c *Config) LanguageSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range c.SupportedLanguages() {
		if strings.ToLower(l) == lang {
			return true
		}
	}
	return false
}

const redacted = "<redacted>"

// Redacted returns a copy safe for printing (show-config, debug logs).
func (c *Config) Redacted() Config {
	cp := *c
	if cp.LLM.APIKey != "" {
		cp.LLM.APIKey = redacted
	}
	if cp.Mail.CredentialsJSON != "" {
		cp.Mail.CredentialsJSON = redacted
	}
	if cp.Mail.TelegramToken != "" {
		cp.Mail.TelegramToken = redacted
	}
	return cp
}
