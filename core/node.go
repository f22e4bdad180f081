package core

import (
	"math/big"
	"strings"
	"sync"

	"github.com/Ebendttl/SwiftEstate/core/events"
	"github.com/Ebendttl/SwiftEstate/core/genesis"
	"github.com/Ebendttl/SwiftEstate/core/state"
	"github.com/Ebendttl/SwiftEstate/core/types"
	"github.com/Ebendttl/SwiftEstate/native/escrow"
	"github.com/Ebendttl/SwiftEstate/native/fees"
	"github.com/Ebendttl/SwiftEstate/native/registry"
	"github.com/Ebendttl/SwiftEstate/storage"
)

const defaultEventHistory = 4096

// StoredEvent pairs an emitted event with its position in the node's
// history.
type StoredEvent struct {
	Sequence   int64
	Type       string
	Attributes map[string]string
}

type eventCarrier interface {
	Event() *types.Event
}

// Node hosts the registry and escrow engines over one state manager and
// serializes every public operation behind a single mutex: one operation
// runs to completion before any other observes shared state. There are no
// background tasks and no suspension points inside an operation, so a typed
// error from any operation means no state changed.
type Node struct {
	mu sync.Mutex

	state    *state.Manager
	registry *registry.Engine
	escrow   *escrow.Engine

	events    []StoredEvent
	seq       int64
	maxEvents int
}

// NewNode wires both engines to the database and fee policy. The admin
// identity is the registry verifier and, unless the policy names a separate
// treasury, the fee collector.
func NewNode(db storage.Database, admin [20]byte, policy fees.Policy) *Node {
	if policy.Treasury == ([20]byte{}) {
		policy.Treasury = admin
	}
	manager := state.NewManager(db)
	node := &Node{
		state:     manager,
		registry:  registry.NewEngine(),
		escrow:    escrow.NewEngine(),
		maxEvents: defaultEventHistory,
	}
	node.registry.SetState(manager)
	node.registry.SetAdmin(admin)
	node.registry.SetEmitter(node)
	node.escrow.SetState(manager)
	node.escrow.SetRegistry(node.registry)
	node.escrow.SetFeePolicy(policy)
	node.escrow.SetEmitter(node)
	return node
}

// SetNowFunc overrides the clock on both engines, for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.registry.SetNowFunc(now)
	n.escrow.SetNowFunc(now)
}

// Emit implements events.Emitter; engines carry *types.Event payloads that
// the node appends to its bounded history. Engines emit mid-operation, so
// this already runs under the node's lock.
func (n *Node) Emit(evt events.Event) {
	carrier, ok := evt.(eventCarrier)
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	n.seq++
	n.events = append(n.events, StoredEvent{
		Sequence:   n.seq,
		Type:       payload.Type,
		Attributes: payload.Attributes,
	})
	if len(n.events) > n.maxEvents {
		n.events = n.events[len(n.events)-n.maxEvents:]
	}
}

// ApplyGenesis credits the bootstrap allocations exactly once per database.
func (n *Node) ApplyGenesis(spec *genesis.Spec) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.GenesisApplied() {
		return nil
	}
	allocs, err := spec.Allocations()
	if err != nil {
		return err
	}
	for _, alloc := range allocs {
		account, err := n.state.GetAccount(alloc.Address)
		if err != nil {
			return err
		}
		account.Balance = new(big.Int).Add(account.Balance, alloc.Amount)
		if err := n.state.PutAccount(alloc.Address, account); err != nil {
			return err
		}
	}
	return n.state.MarkGenesisApplied()
}

// --- Registry operations ---

func (n *Node) RegisterAsset(owner [20]byte, titleHash [32]byte, value *big.Int, location string) (*registry.Asset, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Register(owner, titleHash, value, location)
}

func (n *Node) VerifyAsset(caller [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Verify(caller, id)
}

func (n *Node) GetAsset(id uint64) (*registry.Asset, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Get(id)
}

func (n *Node) DeactivateAsset(caller [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Deactivate(caller, id)
}

// --- Escrow operations ---

func (n *Node) CreateEscrow(caller [20]byte, assetID uint64, buyer [20]byte, agent, inspector *[20]byte, deposit *big.Int, deadline int64) (*escrow.Escrow, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.Create(caller, assetID, buyer, agent, inspector, deposit, deadline)
}

func (n *Node) FundEscrow(id uint64, caller [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.Fund(id, caller)
}

func (n *Node) ApproveEscrow(id uint64, caller [20]byte) (escrow.ApproveOutcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.Approve(id, caller)
}

func (n *Node) CompleteEscrow(id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.Complete(id)
}

func (n *Node) DisputeOrCancelEscrow(id uint64, caller [20]byte, reason string, emergency bool) (escrow.DisputeOutcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.DisputeOrCancel(id, caller, reason, emergency)
}

func (n *Node) GetEscrow(id uint64) (*escrow.Escrow, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.Get(id)
}

func (n *Node) GetDispute(escrowID uint64) (*escrow.Dispute, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.GetDispute(escrowID)
}

func (n *Node) VaultBalance() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.escrow.VaultBalance()
}

func (n *Node) GetBalance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	account, err := n.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Balance), nil
}

// Events returns up to limit stored events whose type carries the prefix,
// newest last. A non-positive limit returns the full matching history.
func (n *Node) Events(prefix string, limit int) []StoredEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	matched := make([]StoredEvent, 0, len(n.events))
	for _, evt := range n.events {
		if prefix == "" || strings.HasPrefix(evt.Type, prefix) {
			matched = append(matched, evt)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}
