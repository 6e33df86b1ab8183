package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
}

// SpotifyConfig contains Spotify Web API client credentials and request tuning.
type SpotifyConfig struct {
	ClientID         string  `toml:"client_id"`
	ClientSecret     string  `toml:"client_secret"`
	Timeout          int     `toml:"timeout"`
	RateLimit        float64 `toml:"rate_limit"`
	AlbumConcurrency int     `toml:"album_concurrency"`
}

// RequestTimeout returns the per-request timeout, defaulting to 15 seconds.
func (s SpotifyConfig) RequestTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// HasCredentials reports whether both client id and secret are set.
func (s SpotifyConfig) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	AllowedOrigin string `toml:"allowed_origin"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
//
// An empty Path disables conversion history.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`

	// Retention is how long conversion history is kept, as a Go duration. Empty keeps everything.
	Retention string `toml:"retention"`
	// PruneSchedule is a cron spec for pruning while serving. Empty disables scheduled pruning.
	PruneSchedule string `toml:"prune_schedule"`
}

// RetentionPeriod parses Retention, returning 0 when it is unset.
func (d DatabaseConfig) RetentionPeriod() (time.Duration, error) {
	if d.Retention == "" {
		return 0, nil
	}
	period, err := time.ParseDuration(d.Retention)
	if err != nil || period <= 0 {
		return 0, fmt.Errorf("%w: database.retention must be a positive duration, got %q", ErrInvalidConfig, d.Retention)
	}
	return period, nil
}

// RedisConfig points at an optional Redis instance used to share the Spotify access token between processes.
type RedisConfig struct {
	URL string `toml:"url"`
	Key string `toml:"key"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults, and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides credentials and the Redis URL from the environment when set.
//
// Serverless deployments inject secrets this way instead of shipping a config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SHOWLIST_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
