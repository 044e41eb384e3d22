// Package config persists zonetool settings between runs.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// maxRecentMaps bounds the recent map list.
const maxRecentMaps = 8

var configProfile string

// SetProfile sets the config profile for separate setups.
func SetProfile(profile string) {
	configProfile = profile
}

// Config holds zonetool configuration.
type Config struct {
	// Connection settings
	LastServer string `json:"last_server"`

	// Processing defaults
	FillStackLimit int  `json:"fill_stack_limit,omitempty"`
	StoreLayouts   bool `json:"store_layouts"`

	// Output preferences
	OutputDir       string `json:"output_dir,omitempty"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`

	// Maps processed recently, newest first
	RecentMaps []string `json:"recent_maps,omitempty"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		LastServer:   "localhost:30000",
		StoreLayouts: true,
	}
}

// LoadConfig loads config from the user's config directory.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

// Save saves the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AddRecent records a map as the most recently processed one.
func (c *Config) AddRecent(mapPath string) {
	recent := []string{mapPath}
	for _, p := range c.RecentMaps {
		if p != mapPath && len(recent) < maxRecentMaps {
			recent = append(recent, p)
		}
	}
	c.RecentMaps = recent
}

// Path returns the path of the config file.
func Path() (string, error) {
	return configPath()
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	filename := "config.json"
	if configProfile != "" {
		filename = "config-" + configProfile + ".json"
	}

	return filepath.Join(configDir, "zonegraph", filename), nil
}
