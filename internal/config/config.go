package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hyperengineering/protrack/internal/types"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Backup     BackupConfig     `yaml:"backup"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig contains model provider settings.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"-"` // env-only, never in YAML
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	// Per-task request timeouts.
	GenerateTimeout  Duration `yaml:"generate_timeout"`
	InterpretTimeout Duration `yaml:"interpret_timeout"`
	Temperature      float64  `yaml:"temperature"`
}

// GenerationConfig contains roadmap generation settings.
type GenerationConfig struct {
	ChunkDays int `yaml:"chunk_days"`
	MaxDays   int `yaml:"max_days"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string   `yaml:"-"` // env-only, never in YAML
	TokenTTL  Duration `yaml:"token_ttl"`
}

// RateLimitConfig bounds requests to the model-backed routes per user.
type RateLimitConfig struct {
	Burst  int      `yaml:"burst"`
	Refill Duration `yaml:"refill"`
}

// ReminderConfig contains reminder worker settings.
type ReminderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// BackupConfig contains database backup settings. Backups go to
// S3-compatible storage; an empty bucket keeps them disabled.
type BackupConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Schedule  string `yaml:"schedule"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	UseSSL    *bool  `yaml:"use_ssl"`
	AccessKey string `yaml:"-"` // env-only, never in YAML
	SecretKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("PROTRACK_CONFIG_PATH", "config/protrack.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOffline loads configuration like Load but skips the secret checks.
// Commands that only touch the local database use it.
func LoadOffline() (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, getEnv("PROTRACK_CONFIG_PATH", "config/protrack.yaml")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(10 * time.Minute), // long plans generate in many sequential chunks
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/protrack.db",
		},
		LLM: LLMConfig{
			Provider:         "deepseek",
			GenerateTimeout:  Duration(120 * time.Second),
			InterpretTimeout: Duration(30 * time.Second),
			Temperature:      0.7,
		},
		Generation: GenerationConfig{
			ChunkDays: 30,
			MaxDays:   365,
		},
		Auth: AuthConfig{
			TokenTTL: Duration(24 * time.Hour),
		},
		RateLimit: RateLimitConfig{
			Burst:  10,
			Refill: Duration(30 * time.Second),
		},
		Reminder: ReminderConfig{
			Enabled:  false,
			Schedule: "0 8 * * *",
		},
		Backup: BackupConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
			Endpoint: "s3.amazonaws.com",
			Prefix:   "protrack/",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server (PORT is what the hosting platform sets)
	if v := firstEnv("PROTRACK_PORT", "PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	setDuration("PROTRACK_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("PROTRACK_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("PROTRACK_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	if v := os.Getenv("PROTRACK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// LLM
	if v := os.Getenv("PROTRACK_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := firstEnv("PROTRACK_LLM_API_KEY", providerKeyEnv(cfg.LLM.Provider)); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PROTRACK_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("PROTRACK_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	setDuration("PROTRACK_LLM_GENERATE_TIMEOUT", &cfg.LLM.GenerateTimeout)
	setDuration("PROTRACK_LLM_INTERPRET_TIMEOUT", &cfg.LLM.InterpretTimeout)

	// Generation
	setInt("PROTRACK_CHUNK_DAYS", &cfg.Generation.ChunkDays)
	setInt("PROTRACK_MAX_DAYS", &cfg.Generation.MaxDays)

	// Auth
	if v := os.Getenv("PROTRACK_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	setDuration("PROTRACK_TOKEN_TTL", &cfg.Auth.TokenTTL)

	// Rate limit
	setInt("PROTRACK_RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	setDuration("PROTRACK_RATE_LIMIT_REFILL", &cfg.RateLimit.Refill)

	// Reminder
	if v := os.Getenv("PROTRACK_REMINDER_ENABLED"); v != "" {
		cfg.Reminder.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("PROTRACK_REMINDER_SCHEDULE"); v != "" {
		cfg.Reminder.Schedule = v
	}

	// Backup
	if v := os.Getenv("PROTRACK_BACKUP_ENABLED"); v != "" {
		cfg.Backup.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("PROTRACK_BACKUP_SCHEDULE"); v != "" {
		cfg.Backup.Schedule = v
	}
	if v := os.Getenv("PROTRACK_BACKUP_ENDPOINT"); v != "" {
		cfg.Backup.Endpoint = v
	}
	if v := os.Getenv("PROTRACK_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Bucket = v
	}
	if v := os.Getenv("PROTRACK_BACKUP_REGION"); v != "" {
		cfg.Backup.Region = v
	}
	if v := os.Getenv("PROTRACK_BACKUP_PREFIX"); v != "" {
		cfg.Backup.Prefix = v
	}
	if v := os.Getenv("PROTRACK_BACKUP_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Backup.UseSSL = &useSSL
	}
	if v := os.Getenv("PROTRACK_S3_ACCESS_KEY"); v != "" {
		cfg.Backup.AccessKey = v
	}
	if v := os.Getenv("PROTRACK_S3_SECRET_KEY"); v != "" {
		cfg.Backup.SecretKey = v
	}

	// Log
	if v := os.Getenv("PROTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PROTRACK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// providerKeyEnv is the provider's conventional API key variable.
func providerKeyEnv(provider string) string {
	if provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "DEEPSEEK_API_KEY"
}

// validate checks that configuration values are usable.
// In dev mode (PROTRACK_DEV_MODE=true), secret validation is skipped.
func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("llm.provider must be openai or deepseek, got %q", c.LLM.Provider)
	}
	if c.Generation.ChunkDays < 15 || c.Generation.ChunkDays > 100 {
		return fmt.Errorf("generation.chunk_days must be between 15 and 100, got %d", c.Generation.ChunkDays)
	}
	if c.Generation.MaxDays < 1 || c.Generation.MaxDays > types.MaxPlanDay {
		return fmt.Errorf("generation.max_days must be between 1 and %d, got %d", types.MaxPlanDay, c.Generation.MaxDays)
	}

	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return errors.New("backup.bucket is required when backups are enabled")
	}

	// Dev mode bypasses secret validation
	if os.Getenv("PROTRACK_DEV_MODE") == "true" {
		return nil
	}

	if c.LLM.APIKey == "" {
		return errors.New("PROTRACK_LLM_API_KEY is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("PROTRACK_JWT_SECRET is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func setDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
