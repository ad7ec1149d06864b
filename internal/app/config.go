package app

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// DefaultBaseBundleID is the id Load looks for when the configuration does
// not name a base bundle explicitly.
const DefaultBaseBundleID = "bundlegrid-base"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Roots        []string // bundle working directories live one level below these
	BaseBundleID string

	LogFormat  string
	LogLevel   string
	AdminPort  int    // 0 disables the admin HTTP server
	ScratchDir string // wiped with retries at startup when set
}

// fileConfig mirrors Config for the optional TOML configuration file.
type fileConfig struct {
	Roots        []string `toml:"roots"`
	BaseBundleID string   `toml:"base_bundle_id"`
	LogFormat    string   `toml:"log_format"`
	LogLevel     string   `toml:"log_level"`
	AdminPort    int      `toml:"admin_port"`
	ScratchDir   string   `toml:"scratch_dir"`
}

// MergeFile loads the TOML file at path and fills in every Config field
// the caller has not already set. Flags always win over the file.
func (c *Config) MergeFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if len(c.Roots) == 0 {
		c.Roots = fc.Roots
	}
	if c.BaseBundleID == "" {
		c.BaseBundleID = fc.BaseBundleID
	}
	if c.LogFormat == "" {
		c.LogFormat = fc.LogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = fc.LogLevel
	}
	if c.AdminPort == 0 {
		c.AdminPort = fc.AdminPort
	}
	if c.ScratchDir == "" {
		c.ScratchDir = fc.ScratchDir
	}
	return nil
}

// NewConfig validates cfg and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("at least one bundle root directory is required")
	}
	if cfg.BaseBundleID == "" {
		cfg.BaseBundleID = DefaultBaseBundleID
	}
	return &cfg, nil
}
