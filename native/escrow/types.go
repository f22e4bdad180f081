package escrow

import (
	"fmt"
	"math/big"
	"strings"
)

// EscrowStatus represents the lifecycle states of a property escrow.
type EscrowStatus uint8

const (
	StatusPending EscrowStatus = iota
	StatusFunded
	StatusApproved
	StatusCompleted
	StatusDisputed
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s EscrowStatus) Valid() bool {
	switch s {
	case StatusPending, StatusFunded, StatusApproved, StatusCompleted, StatusDisputed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is a permanent end state.
func (s EscrowStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s EscrowStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFunded:
		return "funded"
	case StatusApproved:
		return "approved"
	case StatusCompleted:
		return "completed"
	case StatusDisputed:
		return "disputed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// MaxReasonLen bounds the free-form dispute reason text.
const MaxReasonLen = 512

// Escrow captures one conditional-custody agreement. Amount is snapshotted
// from the asset's registered value at creation and never recalculated;
// Deposit is the buyer-funded amount and is independent of Amount. A zero
// agent or inspector address means the role is absent, in which case its
// approval is vacuously satisfied. FundedAt is zero until the buyer funds,
// which is what the cancellation path consults before refunding custody.
type Escrow struct {
	ID        uint64       `json:"id"`
	AssetID   uint64       `json:"assetId"`
	Seller    [20]byte     `json:"seller"`
	Buyer     [20]byte     `json:"buyer"`
	Agent     [20]byte     `json:"agent"`
	Inspector [20]byte     `json:"inspector"`
	Amount    *big.Int     `json:"amount"`
	Deposit   *big.Int     `json:"deposit"`
	Deadline  int64        `json:"deadline"`
	CreatedAt int64        `json:"createdAt"`
	FundedAt  int64        `json:"fundedAt"`
	Status    EscrowStatus `json:"status"`

	SellerApproved    bool `json:"sellerApproved"`
	BuyerApproved     bool `json:"buyerApproved"`
	AgentApproved     bool `json:"agentApproved"`
	InspectorApproved bool `json:"inspectorApproved"`
}

// HasAgent reports whether the optional agent role is present.
func (e *Escrow) HasAgent() bool { return e != nil && e.Agent != ([20]byte{}) }

// HasInspector reports whether the optional inspector role is present.
func (e *Escrow) HasInspector() bool { return e != nil && e.Inspector != ([20]byte{}) }

// Clone returns a deep copy of the escrow so callers can safely mutate the
// copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if e.Deposit != nil {
		clone.Deposit = new(big.Int).Set(e.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	return &clone
}

// SanitizeEscrow validates and normalises the supplied record, returning a
// cloned instance with non-nil amount fields. The original is not mutated.
func SanitizeEscrow(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("nil escrow")
	}
	clone := e.Clone()
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("escrow amount must be non-negative")
	}
	if clone.Deposit.Sign() < 0 {
		return nil, fmt.Errorf("escrow deposit must be non-negative")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid escrow status: %d", clone.Status)
	}
	if clone.Seller == ([20]byte{}) || clone.Buyer == ([20]byte{}) {
		return nil, fmt.Errorf("escrow requires seller and buyer")
	}
	return clone, nil
}

// Dispute is the single overwritable record kept per escrow. Repeated
// dispute initiations replace the slot; only the latest record is
// retrievable.
type Dispute struct {
	EscrowID   uint64   `json:"escrowId"`
	Initiator  [20]byte `json:"initiator"`
	Reason     string   `json:"reason"`
	CreatedAt  int64    `json:"createdAt"`
	Resolved   bool     `json:"resolved"`
	Resolution string   `json:"resolution"`
}

// Clone returns a copy of the dispute record.
func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

// SanitizeDispute validates the dispute record before persistence.
func SanitizeDispute(d *Dispute) (*Dispute, error) {
	if d == nil {
		return nil, fmt.Errorf("nil dispute")
	}
	clone := d.Clone()
	clone.Reason = strings.TrimSpace(clone.Reason)
	if len(clone.Reason) > MaxReasonLen {
		return nil, fmt.Errorf("dispute reason exceeds %d bytes", MaxReasonLen)
	}
	if clone.Initiator == ([20]byte{}) {
		return nil, fmt.Errorf("dispute initiator required")
	}
	return clone, nil
}
