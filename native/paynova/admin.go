package paynova

import (
	"fmt"
	"math/big"
)

// Administrative surface: an owner-controlled escape hatch for value stranded
// in the ledger vault, plus owner rotation. It is deliberately separated from
// the payment operations and never touches per-reference records.

// Owner returns the configured administrative owner, if any.
func (e *Engine) Owner() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.OwnerGet()
}

// InitOwner sets the administrative owner when none is configured yet. It is
// invoked once at daemon bootstrap and refuses to overwrite an existing
// owner.
func (e *Engine) InitOwner(addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if addr == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if _, exists, err := e.state.OwnerGet(); err != nil {
		return err
	} else if exists {
		return nil
	}
	return e.state.OwnerPut(addr)
}

// TransferOwnership hands the administrative role to a new address. Only the
// current owner may rotate it.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if newOwner == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	owner, exists, err := e.state.OwnerGet()
	if err != nil {
		return err
	}
	if !exists || caller != owner {
		return ErrUnauthorized
	}
	if err := e.state.OwnerPut(newOwner); err != nil {
		return err
	}
	e.emit(NewOwnerTransferredEvent(owner, newOwner, e.now()))
	return nil
}

// Fund credits native currency to an account. Only the owner may mint; the
// daemon uses it to seed balances on networks without an external native
// supply.
func (e *Engine) Fund(caller, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if to == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	owner, exists, err := e.state.OwnerGet()
	if err != nil {
		return err
	}
	if !exists || caller != owner {
		return ErrUnauthorized
	}
	balance, err := e.state.BalanceGet(to)
	if err != nil {
		return err
	}
	return e.state.BalancePut(to, new(big.Int).Add(balance, amount))
}

// Withdraw drains vault-held balances to the supplied destination. Only the
// owner may withdraw; per-reference invariants are unaffected because
// settlement custody is transient and terminal records hold no value.
func (e *Engine) Withdraw(caller [20]byte, token [20]byte, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if to == ([20]byte{}) {
		return ErrInvalidRecipient
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	owner, exists, err := e.state.OwnerGet()
	if err != nil {
		return err
	}
	if !exists || caller != owner {
		return ErrUnauthorized
	}
	if token == NativeToken {
		if err := e.transferNative(e.vault, to, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	} else {
		if e.tokens == nil {
			return errNilTokens
		}
		impl, ok := e.tokens.Token(token)
		if !ok {
			return fmt.Errorf("%w: %x", ErrUnknownToken, token)
		}
		if err := impl.Transfer(to, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	e.emit(NewWithdrawnEvent(owner, to, token, amount, e.now()))
	return nil
}
