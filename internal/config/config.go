// Package config loads client settings from the environment and an optional
// .env file using Viper. Every key is read with the ORANGESITES_ prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "ORANGESITES"

// Draft backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds client configuration.
type Config struct {
	// APIURL is the base URL of the inspection API.
	APIURL string `mapstructure:"API_URL"`
	// Home holds remembered tokens, drafts and the log file (default ~/.orangesites).
	Home string `mapstructure:"HOME"`
	// RuntimeDir holds ephemeral tokens; it should be wiped when the OS
	// session ends (default $XDG_RUNTIME_DIR/orangesites).
	RuntimeDir string `mapstructure:"RUNTIME_DIR"`

	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	RefreshTimeout    time.Duration `mapstructure:"REFRESH_TIMEOUT"`
	TokenExpiryLeeway time.Duration `mapstructure:"TOKEN_EXPIRY_LEEWAY"`

	// DraftBackend is "file" or "redis".
	DraftBackend string        `mapstructure:"DRAFT_BACKEND"`
	DraftKey     string        `mapstructure:"DRAFT_KEY"`
	DraftMaxAge  time.Duration `mapstructure:"DRAFT_MAX_AGE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	AutosaveQuiet      time.Duration `mapstructure:"AUTOSAVE_QUIET"`
	AutosaveBackground time.Duration `mapstructure:"AUTOSAVE_BACKGROUND"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFile defaults to <Home>/orangesites.log.
	LogFile string `mapstructure:"LOG_FILE"`
}

// Load reads .env from the working directory (if present), then the
// environment, and validates the result.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path. A missing file is ignored.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", envFile, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("API_URL", "https://api.orangesites.app")
	v.SetDefault("HOME", "")
	v.SetDefault("RUNTIME_DIR", "")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("REFRESH_TIMEOUT", 15*time.Second)
	v.SetDefault("TOKEN_EXPIRY_LEEWAY", 10*time.Second)
	v.SetDefault("DRAFT_BACKEND", BackendFile)
	v.SetDefault("DRAFT_KEY", "visitDraft")
	v.SetDefault("DRAFT_MAX_AGE", 24*time.Hour)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUTOSAVE_QUIET", 2*time.Second)
	v.SetDefault("AUTOSAVE_BACKGROUND", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: API_URL must be set")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("config: API_URL %q must be an http(s) URL", c.APIURL)
	}
	for name, d := range map[string]time.Duration{
		"HTTP_TIMEOUT":        c.HTTPTimeout,
		"REFRESH_TIMEOUT":     c.RefreshTimeout,
		"DRAFT_MAX_AGE":       c.DraftMaxAge,
		"AUTOSAVE_QUIET":      c.AutosaveQuiet,
		"AUTOSAVE_BACKGROUND": c.AutosaveBackground,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.TokenExpiryLeeway < 0 {
		return errors.New("config: TOKEN_EXPIRY_LEEWAY must not be negative")
	}
	switch c.DraftBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR must be set when DRAFT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown DRAFT_BACKEND %q (want file or redis)", c.DraftBackend)
	}
	if c.DraftKey == "" {
		return errors.New("config: DRAFT_KEY must be set")
	}
	return nil
}

// DraftDir is where the file backend keeps drafts.
func (c *Config) DraftDir() string {
	return filepath.Join(c.Home, "drafts")
}

func (c *Config) resolvePaths() error {
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("config: find home directory: %w", err)
		}
		c.Home = filepath.Join(home, ".orangesites")
	}
	if c.RuntimeDir == "" {
		c.RuntimeDir = defaultRuntimeDir()
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Home, "orangesites.log")
	}
	return nil
}

// defaultRuntimeDir picks a per-user directory the OS clears at logout or
// reboot.
func defaultRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "orangesites")
	}
	return filepath.Join(os.TempDir(), "orangesites-"+strconv.Itoa(os.Getuid()))
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
