package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.ListenAddress)
	require.Equal(t, uint32(250), cfg.FeeBps)
	require.Equal(t, "swiftestate-local", cfg.NetworkName)
	require.FileExists(t, path)

	// Loading again reads the persisted file rather than recreating it.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, again.ListenAddress)
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
ListenAddress = ":9999"
DataDir = "/tmp/swift-data"
NetworkName = "swiftestate-test"
FeeBps = 100

[Auth]
JWTEnabled = false
StaticToken = "secret-token"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.ListenAddress)
	require.Equal(t, "/tmp/swift-data", cfg.DataDir)
	require.Equal(t, uint32(100), cfg.FeeBps)
	require.Equal(t, "secret-token", cfg.Auth.StaticToken)
}

func TestValidateRejectsFeeAboveDenominator(t *testing.T) {
	cfg := &Config{ListenAddress: ":8645", DataDir: "data", FeeBps: 10_001}
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresJWTMaterial(t *testing.T) {
	cfg := &Config{
		ListenAddress: ":8645",
		DataDir:       "data",
		FeeBps:        250,
		Auth:          AuthConfig{JWTEnabled: true},
	}
	require.Error(t, cfg.Validate())

	cfg.Auth.HMACSecret = "0123456789abcdef"
	cfg.Auth.Issuer = "swiftd"
	cfg.Auth.Audience = "swift-rpc"
	require.NoError(t, cfg.Validate())
}
