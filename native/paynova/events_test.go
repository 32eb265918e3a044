package paynova

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestGeneratedEventAttributes(t *testing.T) {
	id := ReferenceHash("evt-ref")
	tx := &Transaction{
		From:      newTestAddress(0x01),
		To:        newTestAddress(0x02),
		Amount:    big.NewInt(750),
		Token:     newTestAddress(0xF0),
		Timestamp: 1_700_000_000,
		Status:    StatusPending,
		Refunded:  big.NewInt(0),
	}
	evt := NewGeneratedEvent(id, tx)
	if evt.Type != EventTypeGenerated {
		t.Fatalf("type = %q", evt.Type)
	}
	if evt.Attributes["reference"] != hex.EncodeToString(id[:]) {
		t.Fatalf("reference attr = %q", evt.Attributes["reference"])
	}
	if evt.Attributes["amount"] != "750" {
		t.Fatalf("amount attr = %q", evt.Attributes["amount"])
	}
	if evt.Attributes["timestamp"] != "1700000000" {
		t.Fatalf("timestamp attr = %q", evt.Attributes["timestamp"])
	}
	if _, ok := evt.Attributes["refunded"]; ok {
		t.Fatal("generated event must not carry a refunded attribute")
	}
}

func TestReceiptEventCarriesRefund(t *testing.T) {
	id := ReferenceHash("evt-receipt")
	tx := &Transaction{
		From:      newTestAddress(0x01),
		To:        newTestAddress(0x02),
		Amount:    big.NewInt(1000),
		Timestamp: 1_700_000_100,
		Status:    StatusPaid,
		Refunded:  big.NewInt(200),
	}
	evt := NewReceiptEvent(id, tx)
	if evt.Type != EventTypeReceipt {
		t.Fatalf("type = %q", evt.Type)
	}
	if evt.Attributes["refunded"] != "200" {
		t.Fatalf("refunded attr = %q", evt.Attributes["refunded"])
	}
}

func TestCancelledEventMinimalPayload(t *testing.T) {
	id := ReferenceHash("evt-cancel")
	tx := &Transaction{
		From:      newTestAddress(0x01),
		Timestamp: 1_700_000_200,
		Status:    StatusCancelled,
	}
	evt := NewCancelledEvent(id, tx)
	if evt.Type != EventTypeCancelled {
		t.Fatalf("type = %q", evt.Type)
	}
	if len(evt.Attributes) != 3 {
		t.Fatalf("cancelled event attrs = %v, want from/reference/timestamp only", evt.Attributes)
	}
}

func TestNilTransactionEventPayloads(t *testing.T) {
	id := ReferenceHash("evt-nil")
	if evt := NewGeneratedEvent(id, nil); evt == nil || len(evt.Attributes) != 0 {
		t.Fatal("nil transaction must yield an empty payload")
	}
	if evt := NewCancelledEvent(id, nil); evt == nil || len(evt.Attributes) != 0 {
		t.Fatal("nil transaction must yield an empty payload")
	}
}
