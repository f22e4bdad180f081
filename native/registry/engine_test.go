package registry

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockState struct {
	assets map[uint64]*Asset
	nextID uint64
}

func newMockState() *mockState {
	return &mockState{assets: make(map[uint64]*Asset)}
}

func (m *mockState) AssetPut(a *Asset) error {
	sanitized, err := SanitizeAsset(a)
	if err != nil {
		return err
	}
	m.assets[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) AssetGet(id uint64) (*Asset, bool) {
	asset, ok := m.assets[id]
	if !ok {
		return nil, false
	}
	return asset.Clone(), true
}

func (m *mockState) NextAssetID() (uint64, error) {
	m.nextID++
	return m.nextID, nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func newTestEngine(state *mockState, admin [20]byte) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetAdmin(admin)
	engine.SetNowFunc(func() int64 { return 1_000 })
	return engine
}

func TestRegisterAllocatesSequentialIDs(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, newTestAddress(0xAD))
	owner := newTestAddress(0x01)

	first, err := engine.Register(owner, [32]byte{0x01}, big.NewInt(100), "12 Harbor Lane")
	require.NoError(t, err)
	second, err := engine.Register(owner, [32]byte{0x02}, big.NewInt(200), "14 Harbor Lane")
	require.NoError(t, err)

	require.Equal(t, uint64(1), first.ID)
	require.Equal(t, uint64(2), second.ID)
	require.False(t, first.Verified)
	require.True(t, first.Active)
	require.Equal(t, int64(1_000), first.CreatedAt)
}

func TestRegisterValidation(t *testing.T) {
	engine := newTestEngine(newMockState(), newTestAddress(0xAD))
	owner := newTestAddress(0x01)

	_, err := engine.Register([20]byte{}, [32]byte{}, big.NewInt(100), "")
	require.ErrorIs(t, err, ErrInvalidAsset)

	_, err = engine.Register(owner, [32]byte{}, big.NewInt(0), "")
	require.ErrorIs(t, err, ErrInvalidAsset)

	_, err = engine.Register(owner, [32]byte{}, big.NewInt(100), strings.Repeat("x", MaxLocationLen+1))
	require.ErrorIs(t, err, ErrInvalidAsset)
}

func TestVerifyRequiresAdmin(t *testing.T) {
	state := newMockState()
	admin := newTestAddress(0xAD)
	engine := newTestEngine(state, admin)
	owner := newTestAddress(0x01)

	asset, err := engine.Register(owner, [32]byte{0x01}, big.NewInt(100), "")
	require.NoError(t, err)

	require.ErrorIs(t, engine.Verify(owner, asset.ID), ErrUnauthorized)
	require.ErrorIs(t, engine.Verify(admin, 42), ErrNotFound)

	require.NoError(t, engine.Verify(admin, asset.ID))
	require.True(t, engine.IsVerified(asset.ID))

	// Verifying twice is a no-op.
	require.NoError(t, engine.Verify(admin, asset.ID))
}

func TestSetOwnerTransfersExclusively(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, newTestAddress(0xAD))
	owner := newTestAddress(0x01)
	buyer := newTestAddress(0x02)

	asset, err := engine.Register(owner, [32]byte{0x01}, big.NewInt(100), "")
	require.NoError(t, err)

	require.NoError(t, engine.SetOwner(asset.ID, buyer))
	stored, err := engine.Get(asset.ID)
	require.NoError(t, err)
	require.Equal(t, buyer, stored.Owner)

	require.ErrorIs(t, engine.SetOwner(42, buyer), ErrNotFound)
	require.ErrorIs(t, engine.SetOwner(asset.ID, [20]byte{}), ErrInvalidAsset)
}

func TestDeactivateOwnerOnly(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, newTestAddress(0xAD))
	owner := newTestAddress(0x01)

	asset, err := engine.Register(owner, [32]byte{0x01}, big.NewInt(100), "")
	require.NoError(t, err)

	require.ErrorIs(t, engine.Deactivate(newTestAddress(0x02), asset.ID), ErrUnauthorized)
	require.NoError(t, engine.Deactivate(owner, asset.ID))

	stored, err := engine.Get(asset.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)

	// Idempotent once deactivated.
	require.NoError(t, engine.Deactivate(owner, asset.ID))
}

func TestGetUnknownAsset(t *testing.T) {
	engine := newTestEngine(newMockState(), newTestAddress(0xAD))
	_, err := engine.Get(7)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, engine.IsVerified(7))
}
