package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Player   PlayerConfig   `toml:"player"`
}

// SpotifyConfig contains the Spotify application credentials and OAuth settings.
//
// PKCE flows need no client secret; only the public client identifier is required.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the HTTP command bridge.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlayerConfig contains embedded player settings.
type PlayerConfig struct {
	Name          string  `toml:"name"`
	InitialVolume float64 `toml:"initial_volume"`
}

// DefaultScopes are the Spotify OAuth scopes the player core needs: profile
// and library reads, playback state and control, and library modification.
var DefaultScopes = []string{
	"user-read-private", "user-read-email", "playlist-read-private",
	"user-library-read", "streaming", "user-read-playback-state",
	"user-modify-playback-state", "user-read-recently-played",
	"user-library-modify",
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfig, err)
	}

	config.applyDefaults()

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrConfig, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto file-based configuration.
//
// SMOLFY_CLIENT_ID and SMOLFY_REDIRECT_URI take precedence over the TOML
// values so credentials can stay out of checked-in config files.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SMOLFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SMOLFY_REDIRECT_URI"); v != "" {
		c.Spotify.RedirectURI = v
	}
	if v := os.Getenv("SMOLFY_DB_PATH"); v != "" {
		c.Database.Path = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Spotify.Scopes) == 0 {
		c.Spotify.Scopes = DefaultScopes
	}
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = "http://127.0.0.1:8123/callback"
	}
	if c.Database.Path == "" {
		c.Database.Path = "smolfy.db"
	}
	if c.Player.Name == "" {
		c.Player.Name = "Smolfy Embedded Player"
	}
	if c.Player.InitialVolume <= 0 || c.Player.InitialVolume > 1 {
		c.Player.InitialVolume = 0.5
	}
}
