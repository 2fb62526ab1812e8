package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`

	OutputDir  string `yaml:"output_dir"`
	SummaryDir string `yaml:"summary_dir"`

	DBPath   string `yaml:"db_path"`
	PGDSN    string `yaml:"pg_dsn"`
	PGSchema string `yaml:"pg_schema"`

	MaxRetries         int `yaml:"max_retries"`
	RetryDelaySecs     int `yaml:"retry_delay_secs"`
	MaxWorkers         int `yaml:"max_workers"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs"`

	Country     string   `yaml:"country"`
	Association string   `yaml:"association"`
	Genders     []string `yaml:"genders"`
	MinAge      int      `yaml:"min_age"`
	MaxAge      int      `yaml:"max_age"`

	SlackBotToken    string `yaml:"slack_bot_token"`
	SummaryChannelID string `yaml:"summary_channel_id"`

	ScrapeSchedule string `yaml:"scrape_schedule"`
	Timezone       string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.APIBaseURL, "API_BASE_URL")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.SummaryDir, "SUMMARY_DIR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.PGDSN, "PG_DSN")
	envOverride(&cfg.PGSchema, "PG_SCHEMA")
	envOverrideInt(&cfg.MaxRetries, "MAX_RETRIES")
	envOverrideInt(&cfg.RetryDelaySecs, "RETRY_DELAY_SECS")
	envOverrideInt(&cfg.MaxWorkers, "MAX_WORKERS")
	envOverrideInt(&cfg.RequestTimeoutSecs, "REQUEST_TIMEOUT_SECS")
	envOverride(&cfg.Country, "COUNTRY")
	envOverride(&cfg.Association, "ASSOCIATION")
	envOverrideInt(&cfg.MinAge, "MIN_AGE")
	envOverrideInt(&cfg.MaxAge, "MAX_AGE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SummaryChannelID, "SUMMARY_CHANNEL_ID")
	envOverride(&cfg.ScrapeSchedule, "SCRAPE_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if genders := os.Getenv("GENDERS"); genders != "" {
		cfg.Genders = nil
		for _, g := range strings.Split(genders, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				cfg.Genders = append(cfg.Genders, g)
			}
		}
	}

	// Defaults
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./data"
	}
	if cfg.SummaryDir == "" {
		cfg.SummaryDir = "./logs"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./ranksync.db"
	}
	if cfg.PGSchema == "" {
		cfg.PGSchema = "public"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySecs == 0 {
		cfg.RetryDelaySecs = 5
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 5
	}
	if cfg.RequestTimeoutSecs == 0 {
		cfg.RequestTimeoutSecs = 30
	}
	if cfg.Country == "" {
		cfg.Country = "USA"
	}
	if cfg.Association == "" {
		cfg.Association = "CAS"
	}
	if len(cfg.Genders) == 0 {
		cfg.Genders = []string{"m", "f"}
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = 10
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 19
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate
	if cfg.MaxRetries < 1 {
		log.Fatalf("invalid max_retries '%d': must be >= 1", cfg.MaxRetries)
	}
	if cfg.RetryDelaySecs < 0 {
		log.Fatalf("invalid retry_delay_secs '%d': must be >= 0", cfg.RetryDelaySecs)
	}
	if cfg.MaxWorkers < 1 {
		log.Fatalf("invalid max_workers '%d': must be >= 1", cfg.MaxWorkers)
	}
	if cfg.MinAge > cfg.MaxAge {
		log.Fatalf("invalid age range: min_age %d > max_age %d", cfg.MinAge, cfg.MaxAge)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
