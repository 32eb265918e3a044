package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/aji70/pay-nova/native/paynova"
	"github.com/aji70/pay-nova/storage"
)

var (
	transactionPrefix = []byte("paynova/tx/")
	balancePrefix     = []byte("balance:")
	ownerKey          = ethcrypto.Keccak256([]byte("paynova/owner"))
)

// Manager provides the persistence layer for the payment ledger. Records and
// balances are RLP-encoded and stored under keccak-derived keys so that key
// material never leaks raw references or addresses into the backing store.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// storedTransaction is the RLP wire form of a ledger record. RLP has no
// signed integers, so the timestamp is persisted as uint64.
type storedTransaction struct {
	From      [20]byte
	To        [20]byte
	Amount    *big.Int
	Token     [20]byte
	Timestamp uint64
	Status    uint8
	Refunded  *big.Int
}

func transactionKey(id [32]byte) []byte {
	buf := make([]byte, len(transactionPrefix)+len(id))
	copy(buf, transactionPrefix)
	copy(buf[len(transactionPrefix):], id[:])
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

// TransactionPut persists a ledger record under its reference hash.
func (m *Manager) TransactionPut(id [32]byte, tx *paynova.Transaction) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if tx == nil {
		return fmt.Errorf("state: nil transaction")
	}
	if !tx.Status.Valid() {
		return fmt.Errorf("state: invalid transaction status: %d", tx.Status)
	}
	if tx.Timestamp < 0 {
		return fmt.Errorf("state: negative timestamp")
	}
	stored := storedTransaction{
		From:      tx.From,
		To:        tx.To,
		Amount:    ensureBigInt(tx.Amount),
		Token:     tx.Token,
		Timestamp: uint64(tx.Timestamp),
		Status:    uint8(tx.Status),
		Refunded:  ensureBigInt(tx.Refunded),
	}
	encoded, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return err
	}
	return m.db.Put(transactionKey(id), encoded)
}

// TransactionGet loads a ledger record by its reference hash. The second
// return value reports whether a record exists.
func (m *Manager) TransactionGet(id [32]byte) (*paynova.Transaction, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state: manager not initialised")
	}
	data, err := m.db.Get(transactionKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedTransaction
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	tx := &paynova.Transaction{
		From:      stored.From,
		To:        stored.To,
		Amount:    ensureBigInt(stored.Amount),
		Token:     stored.Token,
		Timestamp: int64(stored.Timestamp),
		Status:    paynova.Status(stored.Status),
		Refunded:  ensureBigInt(stored.Refunded),
	}
	return tx, true, nil
}

// BalanceGet returns the native balance held by addr. Missing accounts report
// a zero balance.
func (m *Manager) BalanceGet(addr [20]byte) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager not initialised")
	}
	data, err := m.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(data, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// BalancePut stores the native balance for addr. Balances mirror the 256-bit
// width of the original ledger and must stay within it.
func (m *Manager) BalancePut(addr [20]byte, balance *big.Int) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	balance = ensureBigInt(balance)
	if balance.Sign() < 0 {
		return fmt.Errorf("state: negative balance for %x", addr)
	}
	if _, overflow := uint256.FromBig(balance); overflow {
		return fmt.Errorf("state: balance overflows 256 bits for %x", addr)
	}
	encoded, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return m.db.Put(balanceKey(addr), encoded)
}

// OwnerGet returns the administrative owner address, if one is configured.
func (m *Manager) OwnerGet() ([20]byte, bool, error) {
	var owner [20]byte
	if m == nil || m.db == nil {
		return owner, false, fmt.Errorf("state: manager not initialised")
	}
	data, err := m.db.Get(ownerKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return owner, false, nil
	}
	if err != nil {
		return owner, false, err
	}
	if err := rlp.DecodeBytes(data, &owner); err != nil {
		return owner, false, err
	}
	if owner == ([20]byte{}) {
		return owner, false, nil
	}
	return owner, true, nil
}

// OwnerPut stores the administrative owner address.
func (m *Manager) OwnerPut(addr [20]byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if addr == ([20]byte{}) {
		return fmt.Errorf("state: zero owner address")
	}
	encoded, err := rlp.EncodeToBytes(addr)
	if err != nil {
		return err
	}
	return m.db.Put(ownerKey, encoded)
}

func ensureBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
