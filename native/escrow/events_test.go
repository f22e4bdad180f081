package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCreatedEventAttributes(t *testing.T) {
	esc := &Escrow{
		ID:      7,
		AssetID: 3,
		Seller:  newTestAddress(0x01),
		Buyer:   newTestAddress(0x02),
		Agent:   newTestAddress(0x03),
		Amount:  big.NewInt(100),
		Deposit: big.NewInt(10),
		Status:  StatusPending,
	}
	evt := NewCreatedEvent(esc)
	require.Equal(t, EventTypeEscrowCreated, evt.Type)
	require.Equal(t, "7", evt.Attributes["id"])
	require.Equal(t, "3", evt.Attributes["assetId"])
	require.Equal(t, "100", evt.Attributes["amount"])
	require.Equal(t, "pending", evt.Attributes["status"])
	require.Contains(t, evt.Attributes, "agent")
	require.NotContains(t, evt.Attributes, "inspector")
}

func TestNewCompletedEventCarriesSplit(t *testing.T) {
	esc := &Escrow{
		ID:      1,
		Seller:  newTestAddress(0x01),
		Buyer:   newTestAddress(0x02),
		Amount:  big.NewInt(100),
		Deposit: big.NewInt(10),
		Status:  StatusCompleted,
	}
	evt := NewCompletedEvent(esc, big.NewInt(97), big.NewInt(3))
	require.Equal(t, "97", evt.Attributes["sellerPayout"])
	require.Equal(t, "3", evt.Attributes["fee"])
}

func TestDisputeEventsCarryRecord(t *testing.T) {
	esc := &Escrow{
		ID:      1,
		Seller:  newTestAddress(0x01),
		Buyer:   newTestAddress(0x02),
		Amount:  big.NewInt(100),
		Deposit: big.NewInt(10),
		Status:  StatusCancelled,
	}
	d := &Dispute{EscrowID: 1, Initiator: newTestAddress(0x02), Reason: "r", Resolved: true, Resolution: cancellationResolution}
	evt := NewCancelledEvent(esc, d)
	require.Equal(t, EventTypeEscrowCancelled, evt.Type)
	require.Equal(t, "r", evt.Attributes["reason"])
	require.Equal(t, "true", evt.Attributes["resolved"])
	require.Equal(t, cancellationResolution, evt.Attributes["resolution"])

	// Nil payloads still produce a typed event.
	empty := NewDisputedEvent(nil, nil)
	require.Equal(t, EventTypeEscrowDisputed, empty.Type)
	require.Empty(t, empty.Attributes)
}
