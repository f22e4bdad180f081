package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Ebendttl/SwiftEstate/native/fees"
)

// AuthConfig controls bearer-token authentication on the RPC surface. When
// JWT validation is enabled the HMAC secret, issuer and audience must all be
// set; otherwise the static token (or no auth at all) applies.
type AuthConfig struct {
	JWTEnabled  bool   `toml:"JWTEnabled"`
	HMACSecret  string `toml:"HMACSecret"`
	Issuer      string `toml:"Issuer"`
	Audience    string `toml:"Audience"`
	StaticToken string `toml:"StaticToken"`
}

type Config struct {
	ListenAddress string     `toml:"ListenAddress"`
	DataDir       string     `toml:"DataDir"`
	GenesisFile   string     `toml:"GenesisFile"`
	NetworkName   string     `toml:"NetworkName"`
	FeeBps        uint32     `toml:"FeeBps"`
	Auth          AuthConfig `toml:"Auth"`
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
	applyDefaults(cfg, path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config, path string) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "swiftestate-local"
	}
	if cfg.FeeBps == 0 {
		cfg.FeeBps = fees.DefaultPlatformBps
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg, path)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
