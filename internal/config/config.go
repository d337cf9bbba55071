// Package config provides configuration loading for the juventud server and CLI.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JUVENTUD_"

// EnvProduction is the server.env value that enables production checks.
const EnvProduction = "production"

// Config is the complete configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	CheckIn CheckInConfig `yaml:"checkin"`
	Storage StorageConfig `yaml:"storage"`
	Email   EmailConfig   `yaml:"email"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the remote Persona/Actividad backend.
type APIConfig struct {
	// BaseURL is the backend origin
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each call; zero waits as long as the caller's context allows
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Env is "development" or "production"
	Env string `yaml:"env"`
	// CSRFKey is 64 hex characters (32 bytes); required in production
	CSRFKey string `yaml:"csrf_key"`
}

// AdminConfig configures the hidden admin panel.
type AdminConfig struct {
	// Path is the unlisted URL prefix, e.g. "/panel-juventud"
	Path string `yaml:"path"`
	// PassphraseHash is an optional bcrypt hash; empty leaves the panel ungated
	PassphraseHash string `yaml:"passphrase_hash"`
}

// CheckInConfig configures when the attendance dialog is offered.
type CheckInConfig struct {
	// Weekday is an English day name, e.g. "sunday"
	Weekday string `yaml:"weekday"`
}

// StorageConfig configures the local SQLite database holding the outbox.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// EmailConfig configures follow-up emails.
type EmailConfig struct {
	// ResendKey enables delivery through Resend; empty uses the noop sender
	ResendKey string `yaml:"resend_key"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
}

// OutboxConfig configures the background retry worker.
type OutboxConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures slog.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://backend01-proyecto-jovenes-phru.vercel.app",
		},
		Server: ServerConfig{
			Addr: ":8080",
			Env:  "development",
		},
		Admin: AdminConfig{
			Path: "/panel-juventud",
		},
		CheckIn: CheckInConfig{
			Weekday: "sunday",
		},
		Storage: StorageConfig{
			Path: "juventud.db",
		},
		Email: EmailConfig{
			From:    "Juventud <noreply@juventud.local>",
			ReplyTo: "",
		},
		Outbox: OutboxConfig{
			Interval: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// reservedPaths are public routes the admin prefix must not shadow.
var reservedPaths = []string{"/registro", "/asistencia", "/metrics", "/healthz", "/static"}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	p := c.Admin.Path
	if !strings.HasPrefix(p, "/") || len(p) < 2 || strings.HasSuffix(p, "/") {
		return fmt.Errorf("admin.path must look like /name, got %q", p)
	}
	for _, r := range reservedPaths {
		if p == r || strings.HasPrefix(p, r+"/") {
			return fmt.Errorf("admin.path %q collides with a public route", p)
		}
	}

	if _, err := c.CheckIn.Day(); err != nil {
		return err
	}
	if c.Outbox.Interval <= 0 {
		return fmt.Errorf("outbox.interval must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.IsProduction() && c.Server.CSRFKey == "" {
		return fmt.Errorf("server.csrf_key is required in production")
	}
	if c.Server.CSRFKey != "" {
		if _, err := decodeCSRFKey(c.Server.CSRFKey); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether server.env is production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

// Day parses Weekday.
func (c CheckInConfig) Day() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.Weekday))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("checkin.weekday must be an English day name, got %q", c.Weekday)
}

// CSRFSecret returns the decoded CSRF key, or a random one when unset outside production.
// PRE: Validate passed
// POST: Returns 32 bytes; generated reports whether the key is ephemeral
func (c *Config) CSRFSecret() (key []byte, generated bool, err error) {
	if c.Server.CSRFKey != "" {
		key, err = decodeCSRFKey(c.Server.CSRFKey)
		return key, false, err
	}
	if c.IsProduction() {
		return nil, false, errors.New("server.csrf_key is required in production")
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate csrf key: %w", err)
	}
	return key, true, nil
}

func decodeCSRFKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("server.csrf_key must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	setString(&c.API.BaseURL, other.API.BaseURL)
	if other.API.Timeout != 0 {
		c.API.Timeout = other.API.Timeout
	}

	setString(&c.Server.Addr, other.Server.Addr)
	setString(&c.Server.Env, other.Server.Env)
	setString(&c.Server.CSRFKey, other.Server.CSRFKey)

	setString(&c.Admin.Path, other.Admin.Path)
	setString(&c.Admin.PassphraseHash, other.Admin.PassphraseHash)

	setString(&c.CheckIn.Weekday, other.CheckIn.Weekday)
	setString(&c.Storage.Path, other.Storage.Path)

	setString(&c.Email.ResendKey, other.Email.ResendKey)
	setString(&c.Email.From, other.Email.From)
	setString(&c.Email.ReplyTo, other.Email.ReplyTo)

	if other.Outbox.Interval != 0 {
		c.Outbox.Interval = other.Outbox.Interval
	}
	setString(&c.Log.Level, other.Log.Level)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// envKeys maps each JUVENTUD_* variable to its setter.
var envKeys = map[string]func(c *Config, v string) error{
	"API_BASE_URL":          func(c *Config, v string) error { c.API.BaseURL = v; return nil },
	"API_TIMEOUT":           func(c *Config, v string) error { return setDuration(&c.API.Timeout, "API_TIMEOUT", v) },
	"ADDR":                  func(c *Config, v string) error { c.Server.Addr = v; return nil },
	"ENV":                   func(c *Config, v string) error { c.Server.Env = v; return nil },
	"CSRF_KEY":              func(c *Config, v string) error { c.Server.CSRFKey = v; return nil },
	"ADMIN_PATH":            func(c *Config, v string) error { c.Admin.Path = v; return nil },
	"ADMIN_PASSPHRASE_HASH": func(c *Config, v string) error { c.Admin.PassphraseHash = v; return nil },
	"CHECKIN_WEEKDAY":       func(c *Config, v string) error { c.CheckIn.Weekday = v; return nil },
	"DB_PATH":               func(c *Config, v string) error { c.Storage.Path = v; return nil },
	"RESEND_KEY":            func(c *Config, v string) error { c.Email.ResendKey = v; return nil },
	"RESEND_FROM":           func(c *Config, v string) error { c.Email.From = v; return nil },
	"REPLY_TO":              func(c *Config, v string) error { c.Email.ReplyTo = v; return nil },
	"OUTBOX_INTERVAL":       func(c *Config, v string) error { return setDuration(&c.Outbox.Interval, "OUTBOX_INTERVAL", v) },
	"LOG_LEVEL":             func(c *Config, v string) error { c.Log.Level = v; return nil },
}

func setDuration(dst *time.Duration, key, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}

// ApplyEnv overrides fields from JUVENTUD_* variables found through lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for key, set := range envKeys {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		if err := set(c, v); err != nil {
			return err
		}
	}
	return nil
}

// Load builds the configuration with layered precedence:
// 1. Defaults
// 2. YAML file at path, when path is non-empty
// 3. .env in the working directory, when present (never overrides the real environment)
// 4. JUVENTUD_* environment variables
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config.Merge(fileConfig)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
