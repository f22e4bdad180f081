package registry

import (
	"encoding/hex"
	"strconv"

	"github.com/Ebendttl/SwiftEstate/core/types"
)

const (
	EventTypeAssetRegistered  = "registry.asset.registered"
	EventTypeAssetVerified    = "registry.asset.verified"
	EventTypeAssetTransferred = "registry.asset.transferred"
	EventTypeAssetDeactivated = "registry.asset.deactivated"
)

// NewRegisteredEvent returns the canonical payload for a newly registered
// asset.
func NewRegisteredEvent(a *Asset) *types.Event { return newAssetEvent(EventTypeAssetRegistered, a) }

// NewVerifiedEvent returns the payload emitted when the administrator attests
// an asset.
func NewVerifiedEvent(a *Asset) *types.Event { return newAssetEvent(EventTypeAssetVerified, a) }

// NewTransferredEvent returns the payload emitted when ownership moves, with
// the outgoing owner recorded alongside the new one.
func NewTransferredEvent(a *Asset, previous [20]byte) *types.Event {
	evt := newAssetEvent(EventTypeAssetTransferred, a)
	if a != nil {
		evt.Attributes["previousOwner"] = hex.EncodeToString(previous[:])
	}
	return evt
}

// NewDeactivatedEvent returns the payload emitted when an asset is retired.
func NewDeactivatedEvent(a *Asset) *types.Event { return newAssetEvent(EventTypeAssetDeactivated, a) }

func newAssetEvent(eventType string, a *Asset) *types.Event {
	attrs := make(map[string]string)
	if a == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeAsset(a)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["owner"] = hex.EncodeToString(sanitized.Owner[:])
	attrs["titleHash"] = hex.EncodeToString(sanitized.TitleHash[:])
	attrs["value"] = sanitized.Value.String()
	attrs["verified"] = strconv.FormatBool(sanitized.Verified)
	attrs["active"] = strconv.FormatBool(sanitized.Active)
	return &types.Event{Type: eventType, Attributes: attrs}
}
