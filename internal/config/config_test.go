package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleYAML = `schedule:
  hour: 7
  minute: 30
  timezone: Europe/Berlin
  run_timeout: 5m
storage:
  driver: memory
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
mail:
  provider: mock
delivery:
  workers: 2
  selection: random
logging:
  level: debug
  console: true
`

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Hour != 7 || cfg.Schedule.Minute != 30 {
		t.Errorf("schedule = %d:%d", cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
	if cfg.RunTimeout() != 5*time.Minute {
		t.Errorf("RunTimeout = %v", cfg.RunTimeout())
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location = %v", cfg.Location())
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("storage.driver = %q", cfg.Storage.Driver)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("llm.provider = %q", cfg.LLM.Provider)
	}
	// Defaults survive for omitted fields.
	if cfg.Delivery.RatePerSec != 2 {
		t.Errorf("delivery.rate_per_sec = %d", cfg.Delivery.RatePerSec)
	}
	if cfg.Catalog.Path != "data/problems.json" {
		t.Errorf("catalog.path = %q", cfg.Catalog.Path)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"schedule":{"hour":6,"minute":15},"storage":{"driver":"memory"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.Hour != 6 || cfg.Schedule.Minute != 15 {
		t.Errorf("schedule = %d:%d", cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "config.yaml", "schedule:\n  hour: 9\n  minuet: 5\n")
	if _, err := Load(path); err == nil {
		t.Fatal("want error for unknown key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	path := writeConfig(t, "config.yaml", "storage:\n  driver: memory\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("llm.api_key = %q", cfg.LLM.APIKey)
	}
	if cfg.Mail.TelegramToken != "123:abc" {
		t.Errorf("mail.telegram_token = %q", cfg.Mail.TelegramToken)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"hour high", func(c *Config) { c.Schedule.Hour = 24 }, "schedule.hour"},
		{"hour negative", func(c *Config) { c.Schedule.Hour = -1 }, "schedule.hour"},
		{"minute high", func(c *Config) { c.Schedule.Minute = 60 }, "schedule.minute"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "schedule.timezone"},
		{"bad run timeout", func(c *Config) { c.Schedule.RunTimeout = "soon" }, "schedule.run_timeout"},
		{"bad llm provider", func(c *Config) { c.LLM.Provider = "bard" }, "llm.provider"},
		{"gmail without creds", func(c *Config) { c.Mail.Provider = "gmail" }, "credentials"},
		{"telegram without token", func(c *Config) { c.Mail.Provider = "telegram" }, "bot token"},
		{"bad mail provider", func(c *Config) { c.Mail.Provider = "pigeon" }, "mail.provider"},
		{"bad embellish policy", func(c *Config) { c.Delivery.EmbellishPolicy = "retry" }, "embellish_policy"},
		{"bad selection", func(c *Config) { c.Delivery.Selection = "newest" }, "delivery.selection"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-secret"
	cfg.Mail.CredentialsJSON = `{"type":"service_account"}`
	cfg.Mail.TelegramToken = "123:abc"

	red := cfg.Redacted()
	if red.LLM.APIKey != redacted || red.Mail.CredentialsJSON != redacted || red.Mail.TelegramToken != redacted {
		t.Errorf("secrets leaked: %+v", red)
	}
	// Originals are untouched, non-secrets pass through.
	if cfg.LLM.APIKey != "sk-secret" {
		t.Error("Redacted mutated the receiver")
	}
	if red.Schedule != cfg.Schedule {
		t.Error("Redacted changed non-secret fields")
	}
	// Empty secrets stay empty rather than showing the placeholder.
	def := Default()
	empty := def.Redacted()
	if empty.LLM.APIKey != "" {
		t.Errorf("empty api key became %q", empty.LLM.APIKey)
	}
}

func TestLanguageSupported(t *testing.T) {
	cfg := Default()
	for _, lang := range []string{"python", "GO", " rust "} {
		if !cfg.LanguageSupported(lang) {
			t.Errorf("LanguageSupported(%q) = false", lang)
		}
	}
	if cfg.LanguageSupported("cobol") {
		t.Error("LanguageSupported(cobol) = true")
	}
	cfg.Languages = []string{"go"}
	if cfg.LanguageSupported("python") {
		t.Error("custom language set should exclude python")
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Errorf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", "90s"); err != nil || d != 90*time.Second {
		t.Errorf("90s = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Error("want error for negative duration")
	}
	if _, err := ParseDurationField("x", "later"); err == nil {
		t.Error("want error for junk")
	}
	if d, err := ParseDurationOrDefault("x", "", 5*time.Second); err != nil || d != 5*time.Second {
		t.Errorf("default = %v, %v", d, err)
	}
}
