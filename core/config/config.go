package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminIDs lists Telegram user IDs allowed to upload schedule and bell data.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"TELEGRAM_ADMIN_IDS"`
	RunMode  string  `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// DatabaseConfig holds Postgres connection settings for the postgres storage driver.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StorageConfig selects where datasets are persisted.
type StorageConfig struct {
	Driver   string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Dir      string         `yaml:"dir" envconfig:"STORAGE_DIR"`
	Database DatabaseConfig `yaml:"database"`
	// ImportDir holds legacy students.json, schedule.json and bells.json files copied
	// into datasets that are still empty at startup.
	ImportDir string `yaml:"import_dir" envconfig:"STORAGE_IMPORT_DIR"`
}

// HealthConfig configures the liveness HTTP endpoint.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	// Disabled turns the endpoint off entirely.
	Disabled bool `yaml:"disabled" envconfig:"HEALTH_DISABLED"`
}

// ScheduleConfig holds school specific settings.
type ScheduleConfig struct {
	// Classes lists the class identifiers offered for selection, in button order.
	Classes  []string `yaml:"classes" envconfig:"SCHEDULE_CLASSES"`
	Timezone string   `yaml:"timezone" envconfig:"SCHEDULE_TIMEZONE"`
}

// IngestConfig limits admin uploads.
type IngestConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes" envconfig:"INGEST_MAX_FILE_BYTES"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageFile keeps datasets as JSON documents on disk.
	StorageFile = "file"
	// StoragePostgres keeps datasets as rows in Postgres.
	StoragePostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

const (
	defaultHealthPort   = 10000
	defaultStorageDir   = "."
	defaultTimezone     = "Europe/Kyiv"
	defaultMaxFileBytes = 1 << 20
)

var defaultClasses = []string{"5", "6", "7", "8", "9"}

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Health    HealthConfig    `yaml:"health"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// CoreConfig returns the configuration itself so Config satisfies cmd.ConfigCarrier.
func (c *Config) CoreConfig() *Config {
	return c
}

// Load reads configuration from a YAML file and environment variables.
// When optional is true a missing file is not an error and only the environment is used.
func Load(path string, optional bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	for _, id := range cfg.Telegram.AdminIDs {
		if id <= 0 {
			return fmt.Errorf("telegram.admin_ids must contain positive user ids, got %d", id)
		}
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := normalizeSchedule(&cfg.Schedule); err != nil {
		return err
	}

	if cfg.Health.Port == 0 {
		cfg.Health.Port = defaultHealthPort
	}
	if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
		return fmt.Errorf("health.port out of range: %d", cfg.Health.Port)
	}
	if strings.TrimSpace(cfg.Health.Listen) == "" {
		cfg.Health.Listen = "0.0.0.0"
	}

	if cfg.Ingest.MaxFileBytes == 0 {
		cfg.Ingest.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.Ingest.MaxFileBytes < 0 {
		return fmt.Errorf("ingest.max_file_bytes must be >= 0")
	}
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageFile:
		if strings.TrimSpace(s.Dir) == "" {
			s.Dir = defaultStorageDir
		}
	case StoragePostgres:
		db := &s.Database
		if db.Host == "" || db.Name == "" || db.User == "" {
			return fmt.Errorf("storage.database host, name and user are required for the postgres driver")
		}
		if db.Port == "" {
			db.Port = "5432"
		}
		if _, err := strconv.Atoi(db.Port); err != nil {
			return fmt.Errorf("invalid storage.database.port %q", db.Port)
		}
		if db.SSLMode == "" {
			db.SSLMode = "disable"
		}
		if db.MaxConnections <= 0 {
			db.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, postgres", s.Driver)
	}
	s.Driver = driver
	return nil
}

func normalizeSchedule(s *ScheduleConfig) error {
	if len(s.Classes) == 0 {
		s.Classes = append([]string(nil), defaultClasses...)
	}
	seen := make(map[string]struct{}, len(s.Classes))
	for i, c := range s.Classes {
		c = strings.TrimSpace(c)
		if c == "" {
			return fmt.Errorf("schedule.classes must not contain empty ids")
		}
		if strings.ContainsAny(c, "|") {
			return fmt.Errorf("schedule.classes id %q must not contain '|'", c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("schedule.classes contains duplicate id %q", c)
		}
		seen[c] = struct{}{}
		s.Classes[i] = c
	}
	if strings.TrimSpace(s.Timezone) == "" {
		s.Timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", s.Timezone, err)
	}
	return nil
}

// Location resolves the configured schedule timezone, falling back to time.Local.
func (s ScheduleConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.Local
}
