package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Ebendttl/SwiftEstate/core/events"
	"github.com/Ebendttl/SwiftEstate/core/types"
	"github.com/Ebendttl/SwiftEstate/native/fees"
	"github.com/Ebendttl/SwiftEstate/native/registry"
)

var (
	errNilState    = errors.New("escrow engine: state not configured")
	errNilRegistry = errors.New("escrow engine: asset registry not configured")

	// ErrNotFound is returned when the referenced escrow id is unknown.
	ErrNotFound = errors.New("escrow: escrow not found")
	// ErrAssetNotFound is returned when escrow creation references an
	// unknown asset id.
	ErrAssetNotFound = errors.New("escrow: asset not found")
	// ErrUnauthorized is returned when the caller lacks the role or
	// ownership required for the operation.
	ErrUnauthorized = errors.New("escrow: unauthorized")
	// ErrInsufficientFunds is returned when a custody transfer cannot be
	// covered; the operation leaves no state change behind.
	ErrInsufficientFunds = errors.New("escrow: insufficient funds")
	// ErrInvalidStatus is returned when the operation is attempted from a
	// status that forbids it.
	ErrInvalidStatus = errors.New("escrow: invalid status")
	// ErrInvalidInput is returned when a parameter fails validation.
	ErrInvalidInput = errors.New("escrow: invalid input")
)

// ErrDeadlinePassed and ErrDisputeActive are semantic aliases surfaced to
// callers to explain a rejection; both belong to the invalid-status family,
// so errors.Is(err, ErrInvalidStatus) holds for either.
var (
	ErrDeadlinePassed = fmt.Errorf("%w: deadline passed", ErrInvalidStatus)
	ErrDisputeActive  = fmt.Errorf("%w: dispute active", ErrInvalidStatus)
)

// cancellationResolution is the resolution text written when the emergency
// path executes.
const cancellationResolution = "Emergency cancellation executed - funds refunded"

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id uint64) (*Escrow, bool)
	NextEscrowID() (uint64, error)
	DisputePut(*Dispute) error
	DisputeGet(escrowID uint64) (*Dispute, bool)
	EscrowVaultAddress() [20]byte
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// AssetRegistry is the slice of the registry surface the engine consumes:
// verified/owner lookups at creation and the ownership write at completion.
type AssetRegistry interface {
	Get(id uint64) (*registry.Asset, error)
	SetOwner(id uint64, newOwner [20]byte) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine owns the escrow lifecycle state machine. External collaborators are
// injected: the state backend holding escrow, dispute and account records,
// the asset registry, the fee policy with its treasury identity, and the
// clock. Every public operation validates before mutating, so a typed error
// always means no state changed.
type Engine struct {
	state    engineState
	registry AssetRegistry
	policy   fees.Policy
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine creates an escrow engine with a no-op emitter and a wall-clock
// time source. Callers override collaborators via the setters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the asset registry consulted at creation and
// mutated at completion.
func (e *Engine) SetRegistry(r AssetRegistry) { e.registry = r }

// SetFeePolicy configures the commission rate and treasury identity applied
// on completion.
func (e *Engine) SetFeePolicy(p fees.Policy) { e.policy = p }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadEscrow(id uint64) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return esc, nil
}

func (e *Engine) storeEscrow(esc *Escrow) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.EscrowPut(esc)
}

// transfer moves value between two accounts, checking the source balance
// before any write so a failed transfer leaves both accounts untouched.
func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer amount", ErrInvalidInput)
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.EnsureDefaults()
	toAcc = toAcc.EnsureDefaults()
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// vaultBalance reports the spendable balance held by the custody vault.
func (e *Engine) vaultBalance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(e.state.EscrowVaultAddress())
	if err != nil {
		return nil, err
	}
	return cloneBigInt(acc.EnsureDefaults().Balance), nil
}

// VaultBalance exposes the custody balance for the read surface. Deposits
// left behind by completed escrows accumulate here; see the dispute and
// completion notes.
func (e *Engine) VaultBalance() (*big.Int, error) {
	return e.vaultBalance()
}

// Create initialises and persists a new escrow seeded from a verified asset.
// The caller must be the asset's registered owner and becomes the seller;
// Amount is snapshotted from the asset's current value and never
// recalculated. Optional agent and inspector roles are absent when nil.
func (e *Engine) Create(caller [20]byte, assetID uint64, buyer [20]byte, agentOpt, inspectorOpt *[20]byte, deposit *big.Int, deadline int64) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.registry == nil {
		return nil, errNilRegistry
	}
	if buyer == ([20]byte{}) {
		return nil, fmt.Errorf("%w: buyer required", ErrInvalidInput)
	}
	dep := cloneBigInt(deposit)
	if dep.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit must be positive", ErrInvalidInput)
	}
	now := e.now()
	if deadline <= now {
		return nil, fmt.Errorf("%w: deadline before creation time", ErrInvalidInput)
	}
	asset, err := e.registry.Get(assetID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	if asset.Owner != caller || !asset.Verified {
		return nil, ErrUnauthorized
	}
	id, err := e.state.NextEscrowID()
	if err != nil {
		return nil, err
	}
	agent := [20]byte{}
	if agentOpt != nil {
		agent = *agentOpt
	}
	inspector := [20]byte{}
	if inspectorOpt != nil {
		inspector = *inspectorOpt
	}
	esc := &Escrow{
		ID:        id,
		AssetID:   assetID,
		Seller:    caller,
		Buyer:     buyer,
		Agent:     agent,
		Inspector: inspector,
		Amount:    cloneBigInt(asset.Value),
		Deposit:   dep,
		Deadline:  deadline,
		CreatedAt: now,
		Status:    StatusPending,
	}
	if err := e.storeEscrow(esc); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(esc))
	return esc.Clone(), nil
}

// Fund moves the deposit from the buyer into the custody vault and marks the
// escrow as funded. Only the buyer may fund, and only from the pending
// status.
func (e *Engine) Fund(id uint64, caller [20]byte) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if esc.Buyer != caller {
		return ErrUnauthorized
	}
	if esc.Status != StatusPending {
		return ErrInvalidStatus
	}
	if err := e.transfer(caller, e.state.EscrowVaultAddress(), esc.Deposit); err != nil {
		return err
	}
	esc.Status = StatusFunded
	esc.FundedAt = e.now()
	if err := e.storeEscrow(esc); err != nil {
		return err
	}
	e.emit(NewFundedEvent(esc))
	return nil
}

// ApproveOutcome distinguishes a plain approval from the one that completed
// the quorum.
type ApproveOutcome struct {
	Role          Role
	QuorumReached bool
}

// Approve records the caller's approval. The flag set is the one matching
// the caller's role under the fixed precedence seller, buyer, agent,
// inspector; when the approval completes the quorum the escrow moves to
// approved in the same step.
func (e *Engine) Approve(id uint64, caller [20]byte) (ApproveOutcome, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return ApproveOutcome{}, err
	}
	role := ResolveRole(esc, caller)
	if role == RoleNone {
		return ApproveOutcome{}, ErrUnauthorized
	}
	if esc.Status != StatusFunded {
		return ApproveOutcome{}, ErrInvalidStatus
	}
	switch role {
	case RoleSeller:
		esc.SellerApproved = true
	case RoleBuyer:
		esc.BuyerApproved = true
	case RoleAgent:
		esc.AgentApproved = true
	case RoleInspector:
		esc.InspectorApproved = true
	}
	outcome := ApproveOutcome{Role: role}
	if QuorumSatisfied(esc) {
		esc.Status = StatusApproved
		outcome.QuorumReached = true
	}
	if err := e.storeEscrow(esc); err != nil {
		return ApproveOutcome{}, err
	}
	if outcome.QuorumReached {
		e.emit(NewApprovedEvent(esc))
	} else {
		e.emit(NewApprovalRecordedEvent(esc, role))
	}
	return outcome, nil
}

// Complete settles an approved escrow strictly before its deadline: the
// snapshotted amount is paid out of custody as seller net plus treasury fee,
// and asset ownership transfers to the buyer. A missing asset record skips
// the ownership write without aborting the settlement. The vault must cover
// the full amount before any transfer is attempted.
//
// Payouts total Amount, not Deposit; whatever the deposit contributed beyond
// the payout stays in custody. That asymmetry is inherited behaviour, kept
// observable through VaultBalance rather than silently reconciled.
func (e *Engine) Complete(id uint64) error {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if esc.Status != StatusApproved {
		if esc.Status == StatusDisputed {
			return ErrDisputeActive
		}
		return ErrInvalidStatus
	}
	if e.now() >= esc.Deadline {
		return ErrDeadlinePassed
	}
	if err := e.policy.Validate(); err != nil {
		return err
	}
	total := cloneBigInt(esc.Amount)
	if total.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	balance, err := e.vaultBalance()
	if err != nil {
		return err
	}
	if balance.Cmp(total) < 0 {
		return ErrInsufficientFunds
	}
	net, fee := e.policy.Split(total)
	vault := e.state.EscrowVaultAddress()
	if net.Sign() > 0 {
		if err := e.transfer(vault, esc.Seller, net); err != nil {
			return err
		}
	}
	if fee.Sign() > 0 {
		if err := e.transfer(vault, e.policy.Treasury, fee); err != nil {
			return err
		}
	}
	if e.registry != nil {
		if err := e.registry.SetOwner(esc.AssetID, esc.Buyer); err != nil && !errors.Is(err, registry.ErrNotFound) {
			return err
		}
	}
	esc.Status = StatusCompleted
	if err := e.storeEscrow(esc); err != nil {
		return err
	}
	e.emit(NewCompletedEvent(esc, net, fee))
	return nil
}

// DisputeOutcome reports which branch the dispute path took.
type DisputeOutcome struct {
	Cancelled bool
}

// DisputeOrCancel records a dispute and, when the emergency conditions hold,
// executes the cancellation: emergency flag set, deadline reached, or a
// dispute already active. Cancellation refunds the full deposit to the buyer
// when custody actually holds it (the escrow was funded) and resolves the
// dispute record in the same step; otherwise the escrow only moves to
// disputed with the record left unresolved. Any participant may invoke the
// path from any non-terminal status, including before funding.
func (e *Engine) DisputeOrCancel(id uint64, caller [20]byte, reason string, emergency bool) (DisputeOutcome, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return DisputeOutcome{}, err
	}
	if !IsParticipant(esc, caller) {
		return DisputeOutcome{}, ErrUnauthorized
	}
	if esc.Status.Terminal() {
		return DisputeOutcome{}, ErrInvalidStatus
	}
	now := e.now()
	dispute, err := SanitizeDispute(&Dispute{
		EscrowID:  esc.ID,
		Initiator: caller,
		Reason:    reason,
		CreatedAt: now,
	})
	if err != nil {
		return DisputeOutcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	cancel := emergency || now >= esc.Deadline || esc.Status == StatusDisputed
	if !cancel {
		esc.Status = StatusDisputed
		if err := e.state.DisputePut(dispute); err != nil {
			return DisputeOutcome{}, err
		}
		if err := e.storeEscrow(esc); err != nil {
			return DisputeOutcome{}, err
		}
		e.emit(NewDisputedEvent(esc, dispute))
		return DisputeOutcome{}, nil
	}
	if esc.FundedAt > 0 && esc.Deposit.Sign() > 0 {
		if err := e.transfer(e.state.EscrowVaultAddress(), esc.Buyer, esc.Deposit); err != nil {
			return DisputeOutcome{}, err
		}
	}
	dispute.Resolved = true
	dispute.Resolution = cancellationResolution
	esc.Status = StatusCancelled
	if err := e.state.DisputePut(dispute); err != nil {
		return DisputeOutcome{}, err
	}
	if err := e.storeEscrow(esc); err != nil {
		return DisputeOutcome{}, err
	}
	e.emit(NewCancelledEvent(esc, dispute))
	return DisputeOutcome{Cancelled: true}, nil
}

// Get resolves the escrow record for the supplied identifier.
func (e *Engine) Get(id uint64) (*Escrow, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}

// GetDispute resolves the latest dispute record for the escrow, if one has
// ever been filed.
func (e *Engine) GetDispute(escrowID uint64) (*Dispute, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok := e.state.EscrowGet(escrowID); !ok {
		return nil, ErrNotFound
	}
	dispute, ok := e.state.DisputeGet(escrowID)
	if !ok {
		return nil, nil
	}
	return dispute.Clone(), nil
}
