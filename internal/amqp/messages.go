package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a transaction activity event.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a change made through DevBills. Amount and
// TransactionType are empty for deletions, where only the id is known.
type TransactionEvent struct {
	Type            EventType `json:"type"`
	TransactionID   string    `json:"transactionId"`
	UserID          string    `json:"userId"`
	Amount          string    `json:"amount,omitempty"`
	TransactionType string    `json:"transactionType,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps an event with the current time.
func NewTransactionEvent(typ EventType, transactionID, userID string) *TransactionEvent {
	return &TransactionEvent{
		Type:          typ,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event, rejecting unknown types.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case TransactionCreated, TransactionDeleted:
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
