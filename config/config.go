package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon configuration. Addresses are hex-encoded 20-byte
// values without a 0x prefix requirement.
type Config struct {
	RPCAddress   string `toml:"RPCAddress"`
	DataDir      string `toml:"DataDir"`
	NetworkName  string `toml:"NetworkName"`
	VaultAddress string `toml:"VaultAddress"`
	OwnerAddress string `toml:"OwnerAddress"`
	EventBacklog int    `toml:"EventBacklog"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the address fields decode to 20-byte values. The vault
// address is mandatory; the owner address is optional and only gates the
// administrative surface.
func (c *Config) Validate() error {
	if _, err := ParseAddress(c.VaultAddress); err != nil {
		return fmt.Errorf("config: invalid VaultAddress: %w", err)
	}
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := ParseAddress(c.OwnerAddress); err != nil {
			return fmt.Errorf("config: invalid OwnerAddress: %w", err)
		}
	}
	if c.EventBacklog < 0 {
		return fmt.Errorf("config: EventBacklog must be non-negative")
	}
	return nil
}

// ParseAddress decodes a hex address string into its 20-byte form.
func ParseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("empty address")
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, err
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./paynova-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "paynova-local"
	}
	if cfg.EventBacklog == 0 {
		cfg.EventBacklog = 1024
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		// The default vault address keeps custody distinct from any real
		// account; operators are expected to replace it.
		VaultAddress: "00000000000000000000000000000000000000ff",
	}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
