package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("API_BASE_URL", "https://rankings.example.com/api/teams")

	cfg := LoadConfig()

	if cfg.APIBaseURL != "https://rankings.example.com/api/teams" {
		t.Fatalf("unexpected api base url: %q", cfg.APIBaseURL)
	}
	if cfg.OutputDir != "./data" {
		t.Fatalf("unexpected output dir default: %q", cfg.OutputDir)
	}
	if cfg.SummaryDir != "./logs" {
		t.Fatalf("unexpected summary dir default: %q", cfg.SummaryDir)
	}
	if cfg.DBPath != "./ranksync.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.MaxRetries != 3 || cfg.RetryDelaySecs != 5 || cfg.MaxWorkers != 5 {
		t.Fatalf("unexpected retry/worker defaults: retries=%d delay=%d workers=%d",
			cfg.MaxRetries, cfg.RetryDelaySecs, cfg.MaxWorkers)
	}
	if cfg.Country != "USA" || cfg.Association != "CAS" {
		t.Fatalf("unexpected query defaults: country=%q association=%q", cfg.Country, cfg.Association)
	}
	if len(cfg.Genders) != 2 || cfg.Genders[0] != "m" || cfg.Genders[1] != "f" {
		t.Fatalf("unexpected genders default: %v", cfg.Genders)
	}
	if cfg.MinAge != 10 || cfg.MaxAge != 19 {
		t.Fatalf("unexpected age defaults: %d..%d", cfg.MinAge, cfg.MaxAge)
	}
	if cfg.Location == nil {
		t.Fatal("location must be resolved")
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api_base_url: "https://yaml.example.com/api"
output_dir: "/tmp/yaml-data"
max_retries: 7
genders: ["f"]
timezone: "UTC"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("GENDERS", "m, f")

	cfg := LoadConfig()

	if cfg.APIBaseURL != "https://yaml.example.com/api" {
		t.Fatalf("yaml value lost: %q", cfg.APIBaseURL)
	}
	if cfg.OutputDir != "/tmp/yaml-data" {
		t.Fatalf("yaml value lost: %q", cfg.OutputDir)
	}
	if cfg.MaxRetries != 2 {
		t.Fatalf("env must override yaml: max_retries=%d", cfg.MaxRetries)
	}
	if len(cfg.Genders) != 2 || cfg.Genders[0] != "m" {
		t.Fatalf("env genders must override yaml: %v", cfg.Genders)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestConfigDurationHelpers(t *testing.T) {
	cfg := Config{RetryDelaySecs: 5, RequestTimeoutSecs: 30}
	if cfg.RetryDelay().Seconds() != 5 {
		t.Fatalf("unexpected retry delay: %s", cfg.RetryDelay())
	}
	if cfg.RequestTimeout().Seconds() != 30 {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
}
