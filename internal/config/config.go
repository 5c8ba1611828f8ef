package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the pda service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	App      AppConfig      `yaml:"app"`
	Mail     MailConfig     `yaml:"mail"`
	Notify   NotifyConfig   `yaml:"notify"`
	Search   SearchConfig   `yaml:"search"`
	Queue    QueueConfig    `yaml:"queue"`
	Fix      FixConfig      `yaml:"fix"`
	Auth     AuthConfig     `yaml:"auth"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotating log file, stderr when empty
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite, memory (default: sqlite)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // sqlite database file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// AppConfig holds application identity used in links and mail subjects.
type AppConfig struct {
	Name   string `yaml:"name"`
	Origin string `yaml:"origin"` // fully qualified base URL for links in mail
}

// MailConfig holds outbound mail settings.
type MailConfig struct {
	Driver    string     `yaml:"driver"` // smtp, log (default: log)
	Sender    string     `yaml:"sender"`
	NotifyTo  []string   `yaml:"notify_to"`
	Admins    []string   `yaml:"admins"`
	ForwardTo []string   `yaml:"forward_to"`
	SMTP      SMTPConfig `yaml:"smtp"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host       string  `yaml:"host"`
	Port       int     `yaml:"port"`
	Username   string  `yaml:"username"`
	Password   string  `yaml:"password"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// NotifyConfig holds daily reminder settings.
type NotifyConfig struct {
	Timezone            string `yaml:"timezone"`
	FallbackOffsetHours *int   `yaml:"fallback_offset_hours"` // nil means -7 (US Pacific daylight time)
	Schedule            string `yaml:"schedule"` // cron expression, "off" disables the scheduler
	SkipDisabled        bool   `yaml:"skip_disabled"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// QueueConfig holds task queue settings.
type QueueConfig struct {
	Workers        int `yaml:"workers"`
	MaxAttempts    int `yaml:"max_attempts"`
	PollTimeoutSec int `yaml:"poll_timeout_sec"`
}

// FixConfig holds maintenance sweep settings.
type FixConfig struct {
	PageSize int `yaml:"page_size"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ShowInternal bool `yaml:"show_internal"` // render keys and word indexes in forms
}

// FallbackOffset returns the fixed UTC offset used when zone data is unavailable.
func (n NotifyConfig) FallbackOffset() time.Duration {
	if n.FallbackOffsetHours == nil {
		return -7 * time.Hour
	}
	return time.Duration(*n.FallbackOffsetHours) * time.Hour
}

// DefaultSchedule runs the notifier every morning at six in the notifier zone.
const DefaultSchedule = "0 6 * * *"

// ScheduleOff disables the in-process scheduler.
const ScheduleOff = "off"

// MaxSearchBatch is the largest key batch a single hydration may request.
const MaxSearchBatch = 30

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding env variables and applying defaults.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "pda.db")
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "pda:"
	}
	if c.App.Name == "" {
		c.App.Name = "pda"
	}
	if c.App.Origin == "" {
		c.App.Origin = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	c.App.Origin = strings.TrimRight(c.App.Origin, "/")
	if c.Mail.Driver == "" {
		c.Mail.Driver = "log"
	}
	if c.Mail.Sender == "" {
		c.Mail.Sender = c.App.Name + "@localhost"
	}
	if c.Mail.SMTP.Port <= 0 {
		c.Mail.SMTP.Port = 587
	}
	if c.Mail.SMTP.RatePerSec <= 0 {
		c.Mail.SMTP.RatePerSec = 2
	}
	if c.Notify.Timezone == "" {
		c.Notify.Timezone = "America/Los_Angeles"
	}
	if c.Notify.Schedule == "" {
		c.Notify.Schedule = DefaultSchedule
	}
	if c.Notify.FallbackOffsetHours == nil {
		offset := -7
		c.Notify.FallbackOffsetHours = &offset
	}
	if c.Search.BatchSize <= 0 || c.Search.BatchSize > MaxSearchBatch {
		c.Search.BatchSize = MaxSearchBatch
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.MaxAttempts <= 0 {
		c.Queue.MaxAttempts = 3
	}
	if c.Queue.PollTimeoutSec <= 0 {
		c.Queue.PollTimeoutSec = 5
	}
	if c.Fix.PageSize <= 0 {
		c.Fix.PageSize = 100
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 50
		}
		if c.Logging.MaxBackups <= 0 {
			c.Logging.MaxBackups = 3
		}
		if c.Logging.MaxAgeDays <= 0 {
			c.Logging.MaxAgeDays = 28
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be \"redis\", \"sqlite\" or \"memory\", got %q", c.Database.Driver)
	}
	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail.smtp.host is required for the smtp driver")
		}
	default:
		return fmt.Errorf("mail.driver must be \"smtp\" or \"log\", got %q", c.Mail.Driver)
	}
	if off := c.Notify.FallbackOffsetHours; off != nil && (*off < -14 || *off > 14) {
		return fmt.Errorf("notify.fallback_offset_hours must be between -14 and 14, got %d", *off)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
