package commands

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/kmandrev/bybit-cli/internal/output"
)

const orderConfigFilename = "order-config.json"

// OrderConfig holds the persisted order-entry defaults.
type OrderConfig struct {
	Slippage            float64 `json:"slippage"`
	DefaultTimeInForce  string  `json:"defaultTimeInForce"`
	ConfirmBeforeSubmit bool    `json:"confirmBeforeSubmit"`
}

// DefaultOrderConfig returns the settings used when nothing is persisted.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{
		Slippage:            0.5,
		DefaultTimeInForce:  "GTC",
		ConfirmBeforeSubmit: true,
	}
}

// LoadOrderConfig reads the persisted order defaults from dataDir. A missing
// or unreadable file yields the defaults; fields absent from the file fall
// back individually, so a partial file written by an older version still
// loads.
func LoadOrderConfig(dataDir string) OrderConfig {
	cfg := DefaultOrderConfig()

	data, err := os.ReadFile(filepath.Join(dataDir, orderConfigFilename))
	if err != nil {
		return cfg
	}

	var stored struct {
		Slippage            *float64 `json:"slippage"`
		DefaultTimeInForce  *string  `json:"defaultTimeInForce"`
		ConfirmBeforeSubmit *bool    `json:"confirmBeforeSubmit"`
	}
	if err := jsoniter.Unmarshal(data, &stored); err != nil {
		return cfg
	}

	if stored.Slippage != nil {
		cfg.Slippage = *stored.Slippage
	}
	if stored.DefaultTimeInForce != nil {
		cfg.DefaultTimeInForce = *stored.DefaultTimeInForce
	}
	if stored.ConfirmBeforeSubmit != nil {
		cfg.ConfirmBeforeSubmit = *stored.ConfirmBeforeSubmit
	}

	return cfg
}

// SaveOrderConfig writes the order defaults to dataDir, creating it if needed.
func SaveOrderConfig(dataDir string, cfg OrderConfig) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := jsoniter.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dataDir, orderConfigFilename), data, 0600)
}

// ShowOrderConfig prints the current order defaults.
func ShowOrderConfig(dataDir string, jsonOut bool) error {
	cfg := LoadOrderConfig(dataDir)

	if jsonOut {
		return printJSON(cfg)
	}

	rows := [][]string{
		{"slippage", fmt.Sprintf("%g%%", cfg.Slippage)},
		{"defaultTimeInForce", cfg.DefaultTimeInForce},
		{"confirmBeforeSubmit", fmt.Sprintf("%t", cfg.ConfirmBeforeSubmit)},
	}
	fmt.Println(output.FormatTable([]string{"Setting", "Value"}, rows))
	return nil
}
