package state

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/aji70/pay-nova/native/paynova"
	"github.com/aji70/pay-nova/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db)
}

func newAddr(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func TestTransactionPutGetRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	id := paynova.ReferenceHash("state-ref")
	tx := &paynova.Transaction{
		From:      newAddr(0x01),
		To:        newAddr(0x02),
		Amount:    big.NewInt(1_000_000),
		Token:     newAddr(0xF0),
		Timestamp: 1_695_000_000,
		Status:    paynova.StatusPending,
		Refunded:  big.NewInt(0),
	}
	if err := mgr.TransactionPut(id, tx); err != nil {
		t.Fatalf("TransactionPut: %v", err)
	}
	stored, ok, err := mgr.TransactionGet(id)
	if err != nil {
		t.Fatalf("TransactionGet: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}
	if stored.From != tx.From || stored.To != tx.To || stored.Token != tx.Token {
		t.Fatalf("addresses corrupted: %+v", stored)
	}
	if stored.Amount.Cmp(tx.Amount) != 0 || stored.Refunded.Sign() != 0 {
		t.Fatalf("amounts corrupted: amount=%s refunded=%s", stored.Amount, stored.Refunded)
	}
	if stored.Timestamp != tx.Timestamp || stored.Status != paynova.StatusPending {
		t.Fatalf("metadata corrupted: %+v", stored)
	}
}

func TestTransactionGetMissing(t *testing.T) {
	mgr := newTestManager(t)
	_, ok, err := mgr.TransactionGet(paynova.ReferenceHash("missing"))
	if err != nil {
		t.Fatalf("TransactionGet: %v", err)
	}
	if ok {
		t.Fatal("missing record must report absent")
	}
}

func TestTransactionPutRejectsInvalid(t *testing.T) {
	mgr := newTestManager(t)
	id := paynova.ReferenceHash("bad")
	if err := mgr.TransactionPut(id, nil); err == nil {
		t.Fatal("nil transaction must be rejected")
	}
	if err := mgr.TransactionPut(id, &paynova.Transaction{Status: 0x09}); err == nil {
		t.Fatal("invalid status must be rejected")
	}
	if err := mgr.TransactionPut(id, &paynova.Transaction{Status: paynova.StatusPending, Timestamp: -1}); err == nil {
		t.Fatal("negative timestamp must be rejected")
	}
}

func TestBalanceRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	addr := newAddr(0x07)

	balance, err := mgr.BalanceGet(addr)
	if err != nil {
		t.Fatalf("BalanceGet: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("fresh account balance = %s, want 0", balance)
	}

	if err := mgr.BalancePut(addr, big.NewInt(12_345)); err != nil {
		t.Fatalf("BalancePut: %v", err)
	}
	balance, err = mgr.BalanceGet(addr)
	if err != nil {
		t.Fatalf("BalanceGet: %v", err)
	}
	if balance.Cmp(big.NewInt(12_345)) != 0 {
		t.Fatalf("balance = %s, want 12345", balance)
	}

	if err := mgr.BalancePut(addr, big.NewInt(-1)); err == nil {
		t.Fatal("negative balance must be rejected")
	}
	if err := mgr.BalancePut(addr, new(big.Int).Lsh(big.NewInt(1), 256)); err == nil {
		t.Fatal("257-bit balance must be rejected")
	}
}

func TestOwnerRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	if _, exists, err := mgr.OwnerGet(); err != nil || exists {
		t.Fatalf("fresh store: exists=%v err=%v", exists, err)
	}
	if err := mgr.OwnerPut([20]byte{}); err == nil {
		t.Fatal("zero owner must be rejected")
	}
	owner := newAddr(0x10)
	if err := mgr.OwnerPut(owner); err != nil {
		t.Fatalf("OwnerPut: %v", err)
	}
	got, exists, err := mgr.OwnerGet()
	if err != nil || !exists {
		t.Fatalf("OwnerGet: exists=%v err=%v", exists, err)
	}
	if got != owner {
		t.Fatalf("owner = %x, want %x", got, owner)
	}
}
