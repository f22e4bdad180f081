package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/Ebendttl/SwiftEstate/core/types"
)

const (
	EventTypeEscrowCreated          = "escrow.created"
	EventTypeEscrowFunded           = "escrow.funded"
	EventTypeEscrowApprovalRecorded = "escrow.approval_recorded"
	EventTypeEscrowApproved         = "escrow.approved"
	EventTypeEscrowCompleted        = "escrow.completed"
	EventTypeEscrowDisputed         = "escrow.disputed"
	EventTypeEscrowCancelled        = "escrow.cancelled"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// escrow.
func NewCreatedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowCreated, e) }

// NewFundedEvent returns the payload emitted when the buyer funds the
// deposit.
func NewFundedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowFunded, e) }

// NewApprovalRecordedEvent returns the payload for an approval that did not
// yet complete the quorum.
func NewApprovalRecordedEvent(e *Escrow, role Role) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowApprovalRecorded, e)
	evt.Attributes["role"] = role.String()
	return evt
}

// NewApprovedEvent returns the payload emitted when quorum is reached.
func NewApprovedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeEscrowApproved, e) }

// NewCompletedEvent returns the payload for a settled escrow, carrying the
// seller payout and the treasury fee.
func NewCompletedEvent(e *Escrow, net, fee *big.Int) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowCompleted, e)
	if net != nil {
		evt.Attributes["sellerPayout"] = net.String()
	}
	if fee != nil {
		evt.Attributes["fee"] = fee.String()
	}
	return evt
}

// NewDisputedEvent returns the payload emitted when an escrow is marked as
// disputed without cancellation.
func NewDisputedEvent(e *Escrow, d *Dispute) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowDisputed, e)
	attachDispute(evt, d)
	return evt
}

// NewCancelledEvent returns the payload emitted when the emergency path
// executes and the escrow is cancelled.
func NewCancelledEvent(e *Escrow, d *Dispute) *types.Event {
	evt := newEscrowEvent(EventTypeEscrowCancelled, e)
	attachDispute(evt, d)
	return evt
}

func attachDispute(evt *types.Event, d *Dispute) {
	if evt == nil || d == nil {
		return
	}
	evt.Attributes["initiator"] = hex.EncodeToString(d.Initiator[:])
	evt.Attributes["reason"] = d.Reason
	evt.Attributes["resolved"] = strconv.FormatBool(d.Resolved)
	if d.Resolution != "" {
		evt.Attributes["resolution"] = d.Resolution
	}
}

func newEscrowEvent(eventType string, e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeEscrow(e)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["assetId"] = strconv.FormatUint(sanitized.AssetID, 10)
	attrs["seller"] = hex.EncodeToString(sanitized.Seller[:])
	attrs["buyer"] = hex.EncodeToString(sanitized.Buyer[:])
	attrs["amount"] = sanitized.Amount.String()
	attrs["deposit"] = sanitized.Deposit.String()
	attrs["deadline"] = strconv.FormatInt(sanitized.Deadline, 10)
	attrs["status"] = sanitized.Status.String()
	if sanitized.HasAgent() {
		attrs["agent"] = hex.EncodeToString(sanitized.Agent[:])
	}
	if sanitized.HasInspector() {
		attrs["inspector"] = hex.EncodeToString(sanitized.Inspector[:])
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
