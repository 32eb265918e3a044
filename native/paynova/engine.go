package paynova

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/aji70/pay-nova/core/events"
	"github.com/aji70/pay-nova/core/types"
	"github.com/aji70/pay-nova/native/common"
)

const lockShards = 64

// ModuleName identifies the ledger for the administrative pause switch.
const ModuleName = "paynova"

type ledgerState interface {
	TransactionPut(id [32]byte, tx *Transaction) error
	TransactionGet(id [32]byte) (*Transaction, bool, error)
	BalanceGet(addr [20]byte) (*big.Int, error)
	BalancePut(addr [20]byte, balance *big.Int) error
	OwnerGet() ([20]byte, bool, error)
	OwnerPut(addr [20]byte) error
}

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ledgerEvent) Event() *types.Event { return e.evt }

// Engine owns the payment ledger: a keyed store of transaction records plus
// the settlement logic that moves value through the ledger vault. Records are
// serialized per reference hash through a sharded lock set, and the Paid
// transition is committed before any external transfer runs so that a token
// or recipient re-entering the engine observes the terminal state.
type Engine struct {
	state   ledgerState
	tokens  TokenRegistry
	emitter events.Emitter
	pauser  common.PauseView
	vault   [20]byte
	nowFn   func() int64
	locks   [lockShards]sync.Mutex
}

// NewEngine creates a ledger engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state ledgerState) { e.state = state }

// SetTokenRegistry configures the registry resolving token addresses to their
// client implementations.
func (e *Engine) SetTokenRegistry(tokens TokenRegistry) { e.tokens = tokens }

// SetPauser configures the administrative pause switch. A nil view leaves the
// ledger always active.
func (e *Engine) SetPauser(p common.PauseView) { e.pauser = p }

// SetVault configures the custody address holding value mid-settlement and
// any balance the owner may withdraw.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(ledgerEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) lockFor(id [32]byte) *sync.Mutex {
	return &e.locks[int(id[0])%lockShards]
}

// Generate reserves a payment under the supplied reference string and returns
// the reference hash records are addressed by from then on. The caller becomes
// the record's creator and is the only identity allowed to settle or cancel
// it. No funds move.
func (e *Engine) Generate(caller, recipient [20]byte, amount *big.Int, token [20]byte, reference string) ([32]byte, error) {
	var id [32]byte
	if e == nil || e.state == nil {
		return id, errNilState
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return id, err
	}
	if caller == ([20]byte{}) {
		return id, ErrUnauthorized
	}
	if recipient == ([20]byte{}) {
		return id, ErrInvalidRecipient
	}
	if !validAmount(amount) {
		return id, ErrInvalidAmount
	}
	if !validReference(reference) {
		return id, ErrEmptyReference
	}
	id = ReferenceHash(reference)

	mu := e.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if _, exists, err := e.state.TransactionGet(id); err != nil {
		return id, err
	} else if exists {
		return id, ErrReferenceUsed
	}
	tx := &Transaction{
		From:      caller,
		To:        recipient,
		Amount:    cloneBigInt(amount),
		Token:     token,
		Timestamp: e.now(),
		Status:    StatusPending,
		Refunded:  big.NewInt(0),
	}
	if err := e.state.TransactionPut(id, tx); err != nil {
		return id, err
	}
	e.emit(NewGeneratedEvent(id, tx))
	return id, nil
}

// Settle delivers the record's exact amount to its recipient and returns any
// excess to the caller.
//
// For token records, sent is the amount the caller has pre-authorized the
// ledger vault to pull. For native records, sent is the value attached to the
// call and is authoritative; there is no separate attached-value argument
// because tokens have no attached-value concept. The asymmetry is deliberate
// and mirrors the original ledger interface.
//
// The Paid transition is committed before any external transfer runs. If a
// transfer fails the prior record state is restored and ErrTransferFailed is
// returned; the record is left exactly as it was before the call.
func (e *Engine) Settle(caller [20]byte, id [32]byte, sent *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return nil, err
	}
	probe, exists, err := e.state.TransactionGet(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	var token Token
	if !probe.IsNative() {
		if e.tokens == nil {
			return nil, errNilTokens
		}
		resolved, ok := e.tokens.Token(probe.Token)
		if !ok {
			return nil, fmt.Errorf("%w: %x", ErrUnknownToken, probe.Token)
		}
		token = resolved
		// Advisory pre-check, performed outside the record lock because it
		// leaves the trust boundary. The pull below remains the authority.
		if sent != nil && sent.Sign() > 0 {
			if allowance, aerr := token.Allowance(caller, e.vault); aerr == nil && allowance != nil && allowance.Cmp(sent) < 0 {
				return nil, fmt.Errorf("%w: allowance below sent amount", ErrTransferFailed)
			}
			if balance, berr := token.BalanceOf(caller); berr == nil && balance != nil && balance.Cmp(sent) < 0 {
				return nil, fmt.Errorf("%w: token balance below sent amount", ErrTransferFailed)
			}
		}
	}

	mu := e.lockFor(id)
	mu.Lock()
	tx, exists, err := e.state.TransactionGet(id)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	if !exists {
		mu.Unlock()
		return nil, ErrNotFound
	}
	if tx.From != caller {
		mu.Unlock()
		return nil, ErrUnauthorized
	}
	if tx.Status != StatusPending {
		mu.Unlock()
		return nil, ErrInvalidState
	}
	supplied := cloneBigInt(sent)
	if supplied.Cmp(tx.Amount) < 0 {
		mu.Unlock()
		return nil, ErrInsufficientFunds
	}
	excess := new(big.Int).Sub(supplied, tx.Amount)
	snapshot := tx.Clone()
	tx.Status = StatusPaid
	tx.Refunded = new(big.Int).Set(excess)
	tx.Timestamp = e.now()
	if err := e.state.TransactionPut(id, tx); err != nil {
		mu.Unlock()
		return nil, err
	}
	mu.Unlock()

	var transferErr error
	if tx.IsNative() {
		transferErr = e.settleNative(tx, supplied, excess)
	} else {
		transferErr = e.settleToken(token, tx, supplied, excess)
	}
	if transferErr != nil {
		e.rollback(id, snapshot)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, transferErr)
	}
	e.emit(NewReceiptEvent(id, tx))
	return excess, nil
}

// settleNative pulls the attached value into the vault, returns any excess to
// the payer and forwards the exact amount to the recipient. The excess is
// returned before the forward so that every step after the pull can be undone
// without touching the recipient's balance.
func (e *Engine) settleNative(tx *Transaction, supplied, excess *big.Int) error {
	if err := e.transferNative(tx.From, e.vault, supplied); err != nil {
		return err
	}
	if excess.Sign() > 0 {
		if err := e.transferNative(e.vault, tx.From, excess); err != nil {
			_ = e.transferNative(e.vault, tx.From, supplied)
			return err
		}
	}
	if err := e.transferNative(e.vault, tx.To, tx.Amount); err != nil {
		// The excess already went back to the payer; return the remainder.
		// A failed unwind strands value in the vault where the owner
		// withdrawal path can still recover it.
		_ = e.transferNative(e.vault, tx.From, tx.Amount)
		return err
	}
	return nil
}

// settleToken mirrors settleNative for fungible-token records. The pull
// requires a prior allowance of at least the sent amount; granting it is the
// caller's concern.
func (e *Engine) settleToken(token Token, tx *Transaction, supplied, excess *big.Int) error {
	if err := token.TransferFrom(tx.From, e.vault, supplied); err != nil {
		return err
	}
	if excess.Sign() > 0 {
		if err := token.Transfer(tx.From, excess); err != nil {
			_ = token.Transfer(tx.From, supplied)
			return err
		}
	}
	if err := token.Transfer(tx.To, tx.Amount); err != nil {
		_ = token.Transfer(tx.From, tx.Amount)
		return err
	}
	return nil
}

func (e *Engine) rollback(id [32]byte, snapshot *Transaction) {
	mu := e.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	_ = e.state.TransactionPut(id, snapshot)
}

// transferNative moves native currency between ledger-held balances. Amounts
// of zero are a no-op.
func (e *Engine) transferNative(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("paynova: negative transfer amount")
	}
	fromBal, err := e.state.BalanceGet(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amt) < 0 {
		return fmt.Errorf("paynova: insufficient native balance")
	}
	toBal, err := e.state.BalanceGet(to)
	if err != nil {
		return err
	}
	if err := e.state.BalancePut(from, new(big.Int).Sub(fromBal, amt)); err != nil {
		return err
	}
	return e.state.BalancePut(to, new(big.Int).Add(toBal, amt))
}

// Cancel withdraws a Pending reservation. Only the creator may cancel, no
// funds move, and the record persists in its terminal state as audit trail.
func (e *Engine) Cancel(caller [20]byte, id [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauser, ModuleName); err != nil {
		return err
	}
	mu := e.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	tx, exists, err := e.state.TransactionGet(id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if tx.From != caller {
		return ErrUnauthorized
	}
	if tx.Status != StatusPending {
		return ErrInvalidState
	}
	tx.Status = StatusCancelled
	tx.Timestamp = e.now()
	if err := e.state.TransactionPut(id, tx); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(id, tx))
	return nil
}

// GetRecord looks up a record by its reference string. The string is hashed
// and delegated to GetRecordByHash; records are never stored under the raw
// string.
func (e *Engine) GetRecord(reference string) (*Transaction, bool, error) {
	return e.GetRecordByHash(ReferenceHash(reference))
}

// GetRecordByHash returns a copy of the stored record, or false when no
// record exists under the hash. Lookups have no side effects.
func (e *Engine) GetRecordByHash(id [32]byte) (*Transaction, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	tx, exists, err := e.state.TransactionGet(id)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	return tx.Clone(), true, nil
}

// VaultBalance reports the native value currently held in ledger custody.
func (e *Engine) VaultBalance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.BalanceGet(e.vault)
}
