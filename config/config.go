package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration loaded from a TOML file. A missing file
// is created with defaults so a fresh checkout starts without ceremony.
type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	Environment string `toml:"Environment"`

	// RPCToken guards the mutating RPC methods. An empty token disables
	// them entirely rather than leaving them open.
	RPCToken string `toml:"RPCToken"`

	RateLimitPerMinute int `toml:"RateLimitPerMinute"`

	OracleStalenessSeconds int64 `toml:"OracleStalenessSeconds"`

	ProofMinBytes int `toml:"ProofMinBytes"`
	ProofMaxBytes int `toml:"ProofMaxBytes"`
}

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded[0])
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./synth-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "synth-local"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 600
	}
	if c.OracleStalenessSeconds <= 0 {
		c.OracleStalenessSeconds = 3600
	}
	if c.ProofMinBytes <= 0 {
		c.ProofMinBytes = 32
	}
	if c.ProofMaxBytes <= 0 {
		c.ProofMaxBytes = 2048
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
