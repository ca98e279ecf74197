// MCL - Mission Clone
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/mission_clone

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/blubskye/mission_clone/internal/db"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Profiles       map[string]Profile `yaml:"profiles"`
	DefaultProfile string             `yaml:"default_profile"`
	// TargetProfile is the profile clones write to; empty means the source
	TargetProfile string `yaml:"target_profile,omitempty"`
	GraphFile     string `yaml:"graph_file,omitempty"`
	LogLevel      string `yaml:"log_level,omitempty"`
	LogFile       string `yaml:"log_file,omitempty"`
}

// Profile holds connection settings for a database
type Profile struct {
	Type      string            `yaml:"type,omitempty"`
	Host      string            `yaml:"host,omitempty"`
	Port      int               `yaml:"port,omitempty"`
	User      string            `yaml:"user,omitempty"`
	Password  string            `yaml:"password,omitempty"`
	Socket    string            `yaml:"socket,omitempty"`
	Database  string            `yaml:"database,omitempty"`
	Path      string            `yaml:"path,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

// ToConnectionConfig converts a Profile to db.ConnectionConfig
func (p *Profile) ToConnectionConfig() (db.ConnectionConfig, error) {
	dbType := db.DatabaseType(p.Type)
	if dbType == "" {
		dbType = db.DatabaseTypeMariaDB
	}
	driver, err := db.GetDriver(dbType)
	if err != nil {
		return db.ConnectionConfig{}, err
	}

	port := p.Port
	if port == 0 {
		port = driver.DefaultPort()
	}

	var vars map[string]string
	if len(p.Variables) > 0 {
		vars = make(map[string]string, len(p.Variables))
		for k, v := range p.Variables {
			vars[k] = v
		}
	}

	return db.ConnectionConfig{
		Type:      dbType,
		Host:      p.Host,
		Port:      port,
		User:      p.User,
		Password:  p.Password,
		Socket:    p.Socket,
		Database:  p.Database,
		Path:      p.Path,
		Variables: vars,
	}, nil
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, "mclone"), nil
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads the configuration from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				Profiles: make(map[string]Profile),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Profiles may hold passwords.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfile returns a profile by name, falling back to the default profile
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}

	if name == "" {
		return nil, fmt.Errorf("no profile specified and no default profile set")
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	return &profile, nil
}

// AddProfile adds or updates a profile
func (c *Config) AddProfile(name string, profile Profile) {
	c.Profiles[name] = profile
}

// RemoveProfile removes a profile
func (c *Config) RemoveProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}

	delete(c.Profiles, name)

	// Clear defaults that pointed at the removed profile
	if c.DefaultProfile == name {
		c.DefaultProfile = ""
	}
	if c.TargetProfile == name {
		c.TargetProfile = ""
	}

	return nil
}

// SetDefault sets the default profile
func (c *Config) SetDefault(name string) error {
	if name != "" {
		if _, ok := c.Profiles[name]; !ok {
			return fmt.Errorf("profile '%s' not found", name)
		}
	}

	c.DefaultProfile = name
	return nil
}

// SetTarget sets the profile clones are written to; empty means the source
func (c *Config) SetTarget(name string) error {
	if name != "" {
		if _, ok := c.Profiles[name]; !ok {
			return fmt.Errorf("profile '%s' not found", name)
		}
	}

	c.TargetProfile = name
	return nil
}

// SetVariable sets a session variable on a profile
func (c *Config) SetVariable(profile, name, value string) error {
	p, ok := c.Profiles[profile]
	if !ok {
		return fmt.Errorf("profile '%s' not found", profile)
	}
	if p.Variables == nil {
		p.Variables = make(map[string]string)
	}
	p.Variables[name] = value
	c.Profiles[profile] = p
	return nil
}

// UnsetVariable removes a session variable from a profile
func (c *Config) UnsetVariable(profile, name string) error {
	p, ok := c.Profiles[profile]
	if !ok {
		return fmt.Errorf("profile '%s' not found", profile)
	}
	if _, ok := p.Variables[name]; !ok {
		return fmt.Errorf("variable '%s' not set on profile '%s'", name, profile)
	}
	delete(p.Variables, name)
	c.Profiles[profile] = p
	return nil
}

// ListProfiles returns all profile names, sorted
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
