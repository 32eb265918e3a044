package paynova

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/aji70/pay-nova/core/types"
)

const (
	EventTypeGenerated        = "paynova.generated"
	EventTypeReceipt          = "paynova.receipt"
	EventTypeCancelled        = "paynova.cancelled"
	EventTypeOwnerTransferred = "paynova.owner_transferred"
	EventTypeWithdrawn        = "paynova.withdrawn"
)

// NewGeneratedEvent returns the canonical event payload for a newly reserved
// payment.
func NewGeneratedEvent(id [32]byte, tx *Transaction) *types.Event {
	return newLedgerEvent(EventTypeGenerated, id, tx)
}

// NewReceiptEvent returns the canonical event payload for a settled payment.
// The refunded attribute carries the excess returned to the payer.
func NewReceiptEvent(id [32]byte, tx *Transaction) *types.Event {
	return newLedgerEvent(EventTypeReceipt, id, tx)
}

// NewCancelledEvent returns the canonical event payload emitted when a
// reservation is withdrawn by its creator.
func NewCancelledEvent(id [32]byte, tx *Transaction) *types.Event {
	if tx == nil {
		return &types.Event{Type: EventTypeCancelled, Attributes: map[string]string{}}
	}
	return &types.Event{Type: EventTypeCancelled, Attributes: map[string]string{
		"from":      hex.EncodeToString(tx.From[:]),
		"reference": hex.EncodeToString(id[:]),
		"timestamp": strconv.FormatInt(tx.Timestamp, 10),
	}}
}

// NewOwnerTransferredEvent returns the event payload for an owner rotation.
func NewOwnerTransferredEvent(previous, next [20]byte, timestamp int64) *types.Event {
	return &types.Event{Type: EventTypeOwnerTransferred, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(previous[:]),
		"newOwner":      hex.EncodeToString(next[:]),
		"timestamp":     strconv.FormatInt(timestamp, 10),
	}}
}

// NewWithdrawnEvent returns the event payload for an administrative vault
// withdrawal.
func NewWithdrawnEvent(owner, to [20]byte, token [20]byte, amount *big.Int, timestamp int64) *types.Event {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return &types.Event{Type: EventTypeWithdrawn, Attributes: map[string]string{
		"owner":     hex.EncodeToString(owner[:]),
		"to":        hex.EncodeToString(to[:]),
		"token":     hex.EncodeToString(token[:]),
		"amount":    amount.String(),
		"timestamp": strconv.FormatInt(timestamp, 10),
	}}
}

func newLedgerEvent(eventType string, id [32]byte, tx *Transaction) *types.Event {
	attrs := make(map[string]string)
	if tx == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized := tx.Clone()
	attrs["from"] = hex.EncodeToString(sanitized.From[:])
	attrs["to"] = hex.EncodeToString(sanitized.To[:])
	attrs["reference"] = hex.EncodeToString(id[:])
	attrs["amount"] = sanitized.Amount.String()
	attrs["token"] = hex.EncodeToString(sanitized.Token[:])
	attrs["timestamp"] = strconv.FormatInt(sanitized.Timestamp, 10)
	if eventType == EventTypeReceipt {
		attrs["refunded"] = sanitized.Refunded.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
