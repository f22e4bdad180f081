package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Ebendttl/SwiftEstate/crypto"
	"github.com/Ebendttl/SwiftEstate/native/escrow"
	"github.com/Ebendttl/SwiftEstate/native/registry"
)

// Wire representations use bech32 strings for identities and decimal strings
// for amounts so clients never lose precision to JSON numbers.

type AssetResult struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	TitleHash string `json:"titleHash"`
	Value     string `json:"value"`
	Location  string `json:"location"`
	Verified  bool   `json:"verified"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"createdAt"`
}

type EscrowResult struct {
	ID                uint64 `json:"id"`
	AssetID           uint64 `json:"assetId"`
	Seller            string `json:"seller"`
	Buyer             string `json:"buyer"`
	Agent             string `json:"agent,omitempty"`
	Inspector         string `json:"inspector,omitempty"`
	Amount            string `json:"amount"`
	Deposit           string `json:"deposit"`
	Deadline          int64  `json:"deadline"`
	CreatedAt         int64  `json:"createdAt"`
	FundedAt          int64  `json:"fundedAt,omitempty"`
	Status            string `json:"status"`
	SellerApproved    bool   `json:"sellerApproved"`
	BuyerApproved     bool   `json:"buyerApproved"`
	AgentApproved     bool   `json:"agentApproved"`
	InspectorApproved bool   `json:"inspectorApproved"`
}

type DisputeResult struct {
	EscrowID   uint64 `json:"escrowId"`
	Initiator  string `json:"initiator"`
	Reason     string `json:"reason"`
	CreatedAt  int64  `json:"createdAt"`
	Resolved   bool   `json:"resolved"`
	Resolution string `json:"resolution,omitempty"`
}

type EventResult struct {
	Sequence   int64             `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func assetResult(asset *registry.Asset) *AssetResult {
	if asset == nil {
		return nil
	}
	return &AssetResult{
		ID:        asset.ID,
		Owner:     crypto.EncodeRaw(asset.Owner),
		TitleHash: hex.EncodeToString(asset.TitleHash[:]),
		Value:     asset.Value.String(),
		Location:  asset.Location,
		Verified:  asset.Verified,
		Active:    asset.Active,
		CreatedAt: asset.CreatedAt,
	}
}

func escrowResult(esc *escrow.Escrow) *EscrowResult {
	if esc == nil {
		return nil
	}
	result := &EscrowResult{
		ID:                esc.ID,
		AssetID:           esc.AssetID,
		Seller:            crypto.EncodeRaw(esc.Seller),
		Buyer:             crypto.EncodeRaw(esc.Buyer),
		Amount:            esc.Amount.String(),
		Deposit:           esc.Deposit.String(),
		Deadline:          esc.Deadline,
		CreatedAt:         esc.CreatedAt,
		FundedAt:          esc.FundedAt,
		Status:            esc.Status.String(),
		SellerApproved:    esc.SellerApproved,
		BuyerApproved:     esc.BuyerApproved,
		AgentApproved:     esc.AgentApproved,
		InspectorApproved: esc.InspectorApproved,
	}
	if esc.HasAgent() {
		result.Agent = crypto.EncodeRaw(esc.Agent)
	}
	if esc.HasInspector() {
		result.Inspector = crypto.EncodeRaw(esc.Inspector)
	}
	return result
}

func disputeResult(d *escrow.Dispute) *DisputeResult {
	if d == nil {
		return nil
	}
	return &DisputeResult{
		EscrowID:   d.EscrowID,
		Initiator:  crypto.EncodeRaw(d.Initiator),
		Reason:     d.Reason,
		CreatedAt:  d.CreatedAt,
		Resolved:   d.Resolved,
		Resolution: d.Resolution,
	}
}

func parseAddress(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func parseOptionalAddress(value string) (*[20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	raw, err := parseAddress(value)
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseTitleHash(value string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, fmt.Errorf("invalid title hash: %w", err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("title hash must be %d bytes", len(out))
	}
	copy(out[:], decoded)
	return out, nil
}
