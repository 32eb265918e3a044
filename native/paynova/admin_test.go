package paynova

import (
	"errors"
	"math/big"
	"testing"
)

func TestInitOwnerRefusesOverwrite(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	owner := newTestAddress(0x10)
	other := newTestAddress(0x11)

	if err := engine.InitOwner([20]byte{}); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("zero owner: got %v, want ErrInvalidRecipient", err)
	}
	if err := engine.InitOwner(owner); err != nil {
		t.Fatalf("InitOwner: %v", err)
	}
	if err := engine.InitOwner(other); err != nil {
		t.Fatalf("second InitOwner must be a no-op, got %v", err)
	}
	got, exists, _ := state.OwnerGet()
	if !exists || got != owner {
		t.Fatalf("owner = %x exists=%v, want first owner kept", got, exists)
	}
}

func TestTransferOwnership(t *testing.T) {
	engine, state, emitter := newTestEngine(t)
	owner := newTestAddress(0x10)
	next := newTestAddress(0x11)
	if err := engine.InitOwner(owner); err != nil {
		t.Fatalf("InitOwner: %v", err)
	}

	if err := engine.TransferOwnership(next, next); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner rotation: got %v, want ErrUnauthorized", err)
	}
	if err := engine.TransferOwnership(owner, next); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	got, _, _ := state.OwnerGet()
	if got != next {
		t.Fatalf("owner = %x, want rotated", got)
	}
	if evts := emitter.byType(EventTypeOwnerTransferred); len(evts) != 1 {
		t.Fatalf("owner_transferred events = %d, want 1", len(evts))
	}
}

func TestFundRequiresOwner(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	owner := newTestAddress(0x10)
	if err := engine.InitOwner(owner); err != nil {
		t.Fatalf("InitOwner: %v", err)
	}

	if err := engine.Fund(stranger, payer, big.NewInt(100)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger fund: got %v, want ErrUnauthorized", err)
	}
	if err := engine.Fund(owner, payer, big.NewInt(100)); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	balance, _ := state.BalanceGet(payer)
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("payer balance = %s, want 100", balance)
	}
}

func TestWithdrawNative(t *testing.T) {
	engine, state, emitter := newTestEngine(t)
	owner := newTestAddress(0x10)
	sink := newTestAddress(0x12)
	if err := engine.InitOwner(owner); err != nil {
		t.Fatalf("InitOwner: %v", err)
	}
	fundNative(t, state, vaultAddr, 900)

	if err := engine.Withdraw(stranger, NativeToken, sink, big.NewInt(900)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger withdraw: got %v, want ErrUnauthorized", err)
	}
	if err := engine.Withdraw(owner, NativeToken, sink, big.NewInt(1000)); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("overdrawn withdraw: got %v, want ErrTransferFailed", err)
	}
	if err := engine.Withdraw(owner, NativeToken, sink, big.NewInt(900)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	balance, _ := state.BalanceGet(sink)
	if balance.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("sink balance = %s, want 900", balance)
	}
	if evts := emitter.byType(EventTypeWithdrawn); len(evts) != 1 {
		t.Fatalf("withdrawn events = %d, want 1", len(evts))
	}
}

func TestWithdrawToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	owner := newTestAddress(0x10)
	sink := newTestAddress(0x12)
	if err := engine.InitOwner(owner); err != nil {
		t.Fatalf("InitOwner: %v", err)
	}
	token := newMockToken(vaultAddr)
	token.mint(vaultAddr, 400)
	registry := NewStaticRegistry()
	registry.Register(tokenAddr, token)
	engine.SetTokenRegistry(registry)

	if err := engine.Withdraw(owner, tokenAddr, sink, big.NewInt(400)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got := token.balance(sink); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("sink token balance = %s, want 400", got)
	}
}
