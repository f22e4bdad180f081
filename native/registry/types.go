package registry

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxLocationLen bounds the free-form location text on an asset record.
const MaxLocationLen = 256

// Asset captures a registered property: the opaque identifier handed to the
// escrow engine, the current owner, the hashed title document and the
// registrar-attested value. Verification is a one-way flag set by the
// administrator; ownership is exclusive.
type Asset struct {
	ID        uint64   `json:"id"`
	Owner     [20]byte `json:"owner"`
	TitleHash [32]byte `json:"titleHash"`
	Value     *big.Int `json:"value"`
	Location  string   `json:"location"`
	Verified  bool     `json:"verified"`
	Active    bool     `json:"active"`
	CreatedAt int64    `json:"createdAt"`
}

// Clone returns a deep copy of the asset so callers can mutate the copy
// without affecting the stored instance.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Value != nil {
		clone.Value = new(big.Int).Set(a.Value)
	} else {
		clone.Value = big.NewInt(0)
	}
	return &clone
}

// SanitizeAsset validates and normalises the supplied record, returning a
// cloned instance with a non-nil value field. The original is not mutated.
func SanitizeAsset(a *Asset) (*Asset, error) {
	if a == nil {
		return nil, fmt.Errorf("nil asset")
	}
	clone := a.Clone()
	clone.Location = strings.TrimSpace(clone.Location)
	if len(clone.Location) > MaxLocationLen {
		return nil, fmt.Errorf("asset location exceeds %d bytes", MaxLocationLen)
	}
	if clone.Value == nil {
		clone.Value = big.NewInt(0)
	}
	if clone.Value.Sign() < 0 {
		return nil, fmt.Errorf("asset value must be non-negative")
	}
	if clone.Owner == ([20]byte{}) {
		return nil, fmt.Errorf("asset owner required")
	}
	return clone, nil
}
