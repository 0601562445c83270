package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kerbaras/mangaread/pkg/data"
)

const (
	DefaultServerURL = "http://localhost:8080"
	DefaultAddr      = "127.0.0.1:8080"
	DefaultUsername  = "local"
	configFileName   = "config.json"
	configDirName    = "mangaread"
)

// Environment overrides. They win over the config file and are never saved.
const (
	EnvServerURL = "MANGAREAD_SERVER_URL"
	EnvToken     = "MANGAREAD_TOKEN"
	EnvDB        = "MANGAREAD_DB"
	EnvAddr      = "MANGAREAD_ADDR"
)

// Config holds the application configuration
type Config struct {
	ServerURL   string                 `json:"server_url"`
	Token       string                 `json:"token,omitempty"`
	Username    string                 `json:"username,omitempty"`
	DBPath      string                 `json:"db_path,omitempty"`
	DownloadDir string                 `json:"download_dir,omitempty"`
	Addr        string                 `json:"addr,omitempty"`
	Reader      data.ReaderPreferences `json:"reader"`

	// Path to config file (not persisted)
	path string
}

// Load reads the config file from the user config dir, falling back to
// defaults when it does not exist, then applies environment overrides.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(configPath string) (*Config, error) {
	dir := filepath.Dir(configPath)
	cfg := &Config{
		ServerURL:   DefaultServerURL,
		DBPath:      filepath.Join(dir, "library.db"),
		DownloadDir: filepath.Join(dir, "downloads"),
		Addr:        DefaultAddr,
		Username:    DefaultUsername,
		Reader:      data.DefaultReaderPreferences(),
		path:        configPath,
	}

	raw, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Config doesn't exist, keep defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	cfg.ServerURL = envOr(EnvServerURL, cfg.ServerURL)
	cfg.Token = envOr(EnvToken, cfg.Token)
	cfg.DBPath = envOr(EnvDB, cfg.DBPath)
	cfg.Addr = envOr(EnvAddr, cfg.Addr)
	cfg.path = configPath
	return cfg, nil
}

// Save persists the configuration to disk
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0600)
}

// File is where Save writes.
func (c *Config) File() string { return c.path }

// Dir is the directory holding the config file, the log and the default
// database.
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// LogPath is the TUI log file.
func (c *Config) LogPath() string { return filepath.Join(c.Dir(), "mangaread.log") }

// SetToken stores a server token and saves
func (c *Config) SetToken(token, username string) error {
	c.Token = token
	if username != "" {
		c.Username = username
	}
	return c.Save()
}

// ClearToken removes the token and saves
func (c *Config) ClearToken() error {
	c.Token = ""
	return c.Save()
}

// Remote reports whether chapters and progress go through a mangaread
// server rather than the local library.
func (c *Config) Remote() bool {
	return c.Token != ""
}

// IsAuthenticated reports whether there is a user to record progress for:
// a server token in remote mode, a profile name locally.
func (c *Config) IsAuthenticated() bool {
	if c.Remote() {
		return true
	}
	return c.Username != ""
}

// UserID is the owner of locally stored progress and preferences.
func (c *Config) UserID() string {
	return c.Username
}

// Path returns the path to the config file
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, configDirName, configFileName), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
