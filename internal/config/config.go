package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultDataDirName = ".bybit-cli"

var validCategories = map[string]struct{}{
	"linear":  {},
	"spot":    {},
	"inverse": {},
	"option":  {},
}

// Config holds all application configuration
type Config struct {
	// Exchange settings
	Testnet  bool
	Category string

	// Account selection; empty means the vault default
	Account string

	// Storage settings
	DataDir string

	// Output settings
	JSONOutput bool

	// Optional encryption key override; when empty the machine identity is
	// used for key derivation
	EncryptionKey string
}

// New creates a new configuration with default values
func New() *Config {
	cfg := &Config{
		Category: "linear",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.DataDir = filepath.Join(homeDir, defaultDataDirName)
	}

	return cfg
}

// LoadFromEnvironment loads configuration from environment variables.
// The environment is read only here; downstream packages receive values
// explicitly.
func (c *Config) LoadFromEnvironment() {
	if dataDir := os.Getenv("BYBIT_CLI_DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}

	if testnet := os.Getenv("BYBIT_CLI_TESTNET"); testnet == "1" || testnet == "true" {
		c.Testnet = true
	}

	if key := os.Getenv("BYBIT_CLI_ENCRYPTION_KEY"); key != "" {
		c.EncryptionKey = key
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, ok := validCategories[c.Category]; !ok {
		return fmt.Errorf("invalid category %q: must be one of linear, spot, inverse, option", c.Category)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	return nil
}

// SettleCoin returns the settlement coin filter used by position and order
// queries for the configured category; empty when no filter applies.
func (c *Config) SettleCoin() string {
	if c.Category == "linear" {
		return "USDT"
	}
	return ""
}
