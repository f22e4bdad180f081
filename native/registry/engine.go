package registry

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Ebendttl/SwiftEstate/core/events"
	"github.com/Ebendttl/SwiftEstate/core/types"
)

var (
	errNilState = errors.New("registry engine: state not configured")

	// ErrNotFound is returned when the referenced asset id is unknown.
	ErrNotFound = errors.New("registry: asset not found")
	// ErrUnauthorized is returned when the caller lacks the role required
	// for the mutation.
	ErrUnauthorized = errors.New("registry: unauthorized")
	// ErrInvalidAsset is returned when a submitted record fails validation.
	ErrInvalidAsset = errors.New("registry: invalid asset")
)

type engineState interface {
	AssetPut(*Asset) error
	AssetGet(id uint64) (*Asset, bool)
	NextAssetID() (uint64, error)
}

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// Engine owns the registered-asset catalog: sequential identifier allocation,
// the verification flag gating escrow creation, and the ownership transfer
// executed when an escrow completes.
type Engine struct {
	state   engineState
	admin   [20]byte
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a registry engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAdmin configures the identity allowed to verify assets.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(registryEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// Register records a new asset owned by the caller. Assets start unverified
// and active; the allocator hands out the next sequential identifier.
func (e *Engine) Register(owner [20]byte, titleHash [32]byte, value *big.Int, location string) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if owner == ([20]byte{}) {
		return nil, fmt.Errorf("%w: owner required", ErrInvalidAsset)
	}
	if value == nil || value.Sign() <= 0 {
		return nil, fmt.Errorf("%w: value must be positive", ErrInvalidAsset)
	}
	id, err := e.state.NextAssetID()
	if err != nil {
		return nil, err
	}
	asset := &Asset{
		ID:        id,
		Owner:     owner,
		TitleHash: titleHash,
		Value:     new(big.Int).Set(value),
		Location:  location,
		Verified:  false,
		Active:    true,
		CreatedAt: e.now(),
	}
	sanitized, err := SanitizeAsset(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	if err := e.state.AssetPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewRegisteredEvent(sanitized))
	return sanitized.Clone(), nil
}

// Verify marks the asset as verified. Only the configured administrator may
// attest an asset; verification is required before the asset can seed an
// escrow.
func (e *Engine) Verify(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.admin == ([20]byte{}) || caller != e.admin {
		return ErrUnauthorized
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrNotFound
	}
	if asset.Verified {
		return nil
	}
	asset.Verified = true
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(NewVerifiedEvent(asset))
	return nil
}

// Get resolves the asset record for the supplied identifier.
func (e *Engine) Get(id uint64) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return asset.Clone(), nil
}

// IsVerified reports whether the asset exists and carries the verification
// attestation.
func (e *Engine) IsVerified(id uint64) bool {
	if e == nil || e.state == nil {
		return false
	}
	asset, ok := e.state.AssetGet(id)
	return ok && asset.Verified
}

// SetOwner transfers ownership of the asset. The call carries no caller
// authorization: it is reserved for the escrow engine, which invokes it only
// as the ownership leg of a completed settlement.
func (e *Engine) SetOwner(id uint64, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if newOwner == ([20]byte{}) {
		return fmt.Errorf("%w: new owner required", ErrInvalidAsset)
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrNotFound
	}
	previous := asset.Owner
	asset.Owner = newOwner
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(asset, previous))
	return nil
}

// Deactivate retires the asset from circulation. Only the current owner may
// deactivate; the record itself is retained as history.
func (e *Engine) Deactivate(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrNotFound
	}
	if asset.Owner != caller {
		return ErrUnauthorized
	}
	if !asset.Active {
		return nil
	}
	asset.Active = false
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(NewDeactivatedEvent(asset))
	return nil
}
