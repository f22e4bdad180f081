package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ebendttl/SwiftEstate/core/types"
	"github.com/Ebendttl/SwiftEstate/native/escrow"
	"github.com/Ebendttl/SwiftEstate/native/registry"
	"github.com/Ebendttl/SwiftEstate/storage"
)

const (
	accountPrefix = "acct/"
	escrowPrefix  = "escrow/"
	disputePrefix = "dispute/"
	assetPrefix   = "asset/"

	escrowSeqKey = "seq/escrow"
	assetSeqKey  = "seq/asset"

	genesisAppliedKey = "meta/genesis-applied"
)

// escrowVaultAddress is the module account holding all escrow custody. It is
// derived from a tag no keypair can produce, so nothing can spend from it
// outside engine transfers.
var escrowVaultAddress = func() [20]byte {
	var addr [20]byte
	copy(addr[:], "swiftestate/vault")
	return addr
}()

// Manager persists accounts, escrows, disputes and assets as JSON values in
// a key-value database. It implements the state interfaces of both native
// engines; serialization of access is the owning Node's concern, not the
// manager's.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr [20]byte) []byte {
	return append([]byte(accountPrefix), addr[:]...)
}

func recordKey(prefix string, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

// GetAccount loads the account for the address, returning a zero-balance
// account when none has been stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return (&types.Account{}).EnsureDefaults(), nil
	}
	if err != nil {
		return nil, err
	}
	account := &types.Account{}
	if err := json.Unmarshal(raw, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return account.EnsureDefaults(), nil
}

// PutAccount stores the account under the address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	raw, err := json.Marshal(account.EnsureDefaults())
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), raw)
}

// EscrowVaultAddress returns the module custody account.
func (m *Manager) EscrowVaultAddress() [20]byte {
	return escrowVaultAddress
}

// EscrowPut persists the escrow record after sanitisation.
func (m *Manager) EscrowPut(e *escrow.Escrow) error {
	sanitized, err := escrow.SanitizeEscrow(e)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode escrow: %w", err)
	}
	return m.db.Put(recordKey(escrowPrefix, sanitized.ID), raw)
}

// EscrowGet loads the escrow record for the identifier.
func (m *Manager) EscrowGet(id uint64) (*escrow.Escrow, bool) {
	raw, err := m.db.Get(recordKey(escrowPrefix, id))
	if err != nil {
		return nil, false
	}
	record := &escrow.Escrow{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, false
	}
	return record, true
}

// NextEscrowID hands out the next sequential escrow identifier, starting
// at 1.
func (m *Manager) NextEscrowID() (uint64, error) {
	return m.nextSequence(escrowSeqKey)
}

// DisputePut persists the single dispute slot for the escrow, overwriting
// any previous record.
func (m *Manager) DisputePut(d *escrow.Dispute) error {
	sanitized, err := escrow.SanitizeDispute(d)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode dispute: %w", err)
	}
	return m.db.Put(recordKey(disputePrefix, sanitized.EscrowID), raw)
}

// DisputeGet loads the latest dispute record for the escrow.
func (m *Manager) DisputeGet(escrowID uint64) (*escrow.Dispute, bool) {
	raw, err := m.db.Get(recordKey(disputePrefix, escrowID))
	if err != nil {
		return nil, false
	}
	record := &escrow.Dispute{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, false
	}
	return record, true
}

// AssetPut persists the asset record after sanitisation.
func (m *Manager) AssetPut(a *registry.Asset) error {
	sanitized, err := registry.SanitizeAsset(a)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("state: encode asset: %w", err)
	}
	return m.db.Put(recordKey(assetPrefix, sanitized.ID), raw)
}

// AssetGet loads the asset record for the identifier.
func (m *Manager) AssetGet(id uint64) (*registry.Asset, bool) {
	raw, err := m.db.Get(recordKey(assetPrefix, id))
	if err != nil {
		return nil, false
	}
	record := &registry.Asset{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, false
	}
	return record, true
}

// NextAssetID hands out the next sequential asset identifier, starting at 1.
func (m *Manager) NextAssetID() (uint64, error) {
	return m.nextSequence(assetSeqKey)
}

// GenesisApplied reports whether the bootstrap allocations have already been
// written to this database.
func (m *Manager) GenesisApplied() bool {
	ok, err := m.db.Has([]byte(genesisAppliedKey))
	return err == nil && ok
}

// MarkGenesisApplied records that bootstrap has run so it never runs twice.
func (m *Manager) MarkGenesisApplied() error {
	return m.db.Put([]byte(genesisAppliedKey), []byte{1})
}

// nextSequence is an arena-style allocator: it loads the counter, increments
// it, persists the new value and returns it. Callers run under the node's
// serialized execution, so no transactional guard is needed here.
func (m *Manager) nextSequence(key string) (uint64, error) {
	var current uint64
	raw, err := m.db.Get([]byte(key))
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		current = 0
	case err != nil:
		return 0, err
	case len(raw) == 8:
		current = binary.BigEndian.Uint64(raw)
	default:
		return 0, fmt.Errorf("state: corrupt sequence %q", key)
	}
	next := current + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := m.db.Put([]byte(key), buf); err != nil {
		return 0, err
	}
	return next, nil
}
