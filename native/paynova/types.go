package paynova

import (
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Status represents the lifecycle state of a payment record.
type Status uint8

const (
	StatusPending   Status = 0x01 // Payment reserved, no funds moved yet
	StatusPaid      Status = 0x02 // Funds delivered to the recipient
	StatusCancelled Status = 0x03 // Reservation withdrawn by its creator
)

// NativeToken is the sentinel token address denoting the native currency.
var NativeToken = [20]byte{}

// Transaction captures the state of a single payment reservation. Records are
// keyed by the keccak256 hash of the caller-supplied reference string and are
// never deleted; terminal records persist as the audit trail.
type Transaction struct {
	From      [20]byte
	To        [20]byte
	Amount    *big.Int
	Token     [20]byte
	Timestamp int64
	Status    Status
	Refunded  *big.Int
}

// Clone returns a deep copy of the transaction so callers can safely mutate
// the copy without affecting the stored instance.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Amount != nil {
		clone.Amount = new(big.Int).Set(t.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if t.Refunded != nil {
		clone.Refunded = new(big.Int).Set(t.Refunded)
	} else {
		clone.Refunded = big.NewInt(0)
	}
	return &clone
}

// IsNative reports whether the record settles in native currency.
func (t *Transaction) IsNative() bool {
	return t != nil && t.Token == NativeToken
}

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name used on the wire.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPaid:
		return "paid"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ReferenceHash derives the storage key for a reference string. The hash is
// the only key records are stored under; string-keyed entry points hash and
// delegate so the two addressing schemes can never diverge.
func ReferenceHash(reference string) [32]byte {
	return ethcrypto.Keccak256Hash([]byte(reference))
}

// validAmount reports whether the amount is positive and representable in 256
// bits, matching the width of the original ledger's integers.
func validAmount(amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	_, overflow := uint256.FromBig(amount)
	return !overflow
}

func validReference(reference string) bool {
	return strings.TrimSpace(reference) != ""
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
