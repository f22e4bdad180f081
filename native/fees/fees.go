package fees

import (
	"fmt"
	"math/big"
)

// BpsDenominator is the divisor applied to basis-point rates.
const BpsDenominator = 10_000

// DefaultPlatformBps is the platform commission applied when no explicit rate
// is configured (2.5%).
const DefaultPlatformBps uint32 = 250

// Policy captures the process-wide fee configuration injected into the escrow
// engine at construction: the commission rate and the treasury identity that
// collects it.
type Policy struct {
	RateBps  uint32
	Treasury [20]byte
}

// Validate reports whether the policy can be applied to settlements.
func (p Policy) Validate() error {
	if p.RateBps > BpsDenominator {
		return fmt.Errorf("fees: rate bps out of range: %d", p.RateBps)
	}
	if p.Treasury == ([20]byte{}) {
		return fmt.Errorf("fees: treasury not configured")
	}
	return nil
}

// Calculate returns floor(amount * rateBps / 10_000). The result never
// exceeds amount and a nil or negative amount yields zero.
func Calculate(amount *big.Int, rateBps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if rateBps == 0 {
		return big.NewInt(0)
	}
	if rateBps > BpsDenominator {
		rateBps = BpsDenominator
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(rateBps)))
	return fee.Div(fee, big.NewInt(BpsDenominator))
}

// Split divides a gross settlement into the net payout and the fee owed under
// the policy rate.
func (p Policy) Split(amount *big.Int) (net *big.Int, fee *big.Int) {
	fee = Calculate(amount, p.RateBps)
	if amount == nil {
		return big.NewInt(0), fee
	}
	net = new(big.Int).Sub(amount, fee)
	if net.Sign() < 0 {
		net = big.NewInt(0)
	}
	return net, fee
}
