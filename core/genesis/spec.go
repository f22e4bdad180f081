package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/Ebendttl/SwiftEstate/crypto"
)

// Spec describes the chain-independent bootstrap state applied once on first
// boot: the administrator identity that verifies assets and collects fees,
// and the initial account balances.
type Spec struct {
	Admin  string            `json:"admin"`
	FeeBps *uint32           `json:"feeBps,omitempty"`
	Alloc  map[string]string `json:"alloc"` // bech32 address -> amount
}

// Allocation is one resolved initial balance.
type Allocation struct {
	Address [20]byte
	Amount  *big.Int
}

// Load reads and validates a genesis spec from disk.
func Load(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	spec := &Spec{}
	if err := json.Unmarshal(raw, spec); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the spec without resolving it.
func (s *Spec) Validate() error {
	if s == nil {
		return fmt.Errorf("genesis: nil spec")
	}
	if strings.TrimSpace(s.Admin) == "" {
		return fmt.Errorf("genesis: admin address required")
	}
	if _, err := crypto.DecodeAddress(strings.TrimSpace(s.Admin)); err != nil {
		return fmt.Errorf("genesis: admin: %w", err)
	}
	if s.FeeBps != nil && *s.FeeBps > 10_000 {
		return fmt.Errorf("genesis: feeBps out of range: %d", *s.FeeBps)
	}
	for addr, amount := range s.Alloc {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(addr)); err != nil {
			return fmt.Errorf("genesis: alloc %s: %w", addr, err)
		}
		if _, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10); !ok {
			return fmt.Errorf("genesis: alloc %s: invalid amount %q", addr, amount)
		}
	}
	return nil
}

// AdminAddress resolves the administrator identity.
func (s *Spec) AdminAddress() ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(s.Admin))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// Allocations resolves the initial balances in a deterministic order.
func (s *Spec) Allocations() ([]Allocation, error) {
	keys := make([]string, 0, len(s.Alloc))
	for addr := range s.Alloc {
		keys = append(keys, addr)
	}
	sort.Strings(keys)
	out := make([]Allocation, 0, len(keys))
	for _, key := range keys {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("genesis: alloc %s: %w", key, err)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(s.Alloc[key]), 10)
		if !ok || amount.Sign() < 0 {
			return nil, fmt.Errorf("genesis: alloc %s: invalid amount", key)
		}
		out = append(out, Allocation{Address: addr.Raw(), Amount: amount})
	}
	return out, nil
}
