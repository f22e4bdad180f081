package config

import (
	"fmt"
	"strings"

	"github.com/Ebendttl/SwiftEstate/crypto"
	"github.com/Ebendttl/SwiftEstate/native/fees"
)

// Validate checks the configuration for values that would make the node
// refuse to start.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if c.FeeBps > fees.BpsDenominator {
		return fmt.Errorf("config: FeeBps %d exceeds %d", c.FeeBps, fees.BpsDenominator)
	}
	if c.Auth.JWTEnabled {
		if strings.TrimSpace(c.Auth.HMACSecret) == "" {
			return fmt.Errorf("config: Auth.HMACSecret required when JWT auth is enabled")
		}
		if strings.TrimSpace(c.Auth.Issuer) == "" {
			return fmt.Errorf("config: Auth.Issuer required when JWT auth is enabled")
		}
		if strings.TrimSpace(c.Auth.Audience) == "" {
			return fmt.Errorf("config: Auth.Audience required when JWT auth is enabled")
		}
	}
	return nil
}

// AdminAddressValid reports whether the supplied bech32 admin address parses
// with the expected prefix. The genesis file is the authoritative source for
// the admin identity; this helper is for early CLI validation only.
func AdminAddressValid(addr string) bool {
	if strings.TrimSpace(addr) == "" {
		return false
	}
	_, err := crypto.DecodeAddress(addr)
	return err == nil
}
