package amqp

import (
	"time"

	"github.com/goccy/go-json"

	"fintrack/internal/core"
)

type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

// TransactionEvent announces one successful mutation. Deletions carry
// only the id.
type TransactionEvent struct {
	Kind        EventKind         `json:"kind"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionEvent creates a created/updated event carrying t.
func NewTransactionEvent(kind EventKind, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Kind:        kind,
		ID:          t.ID,
		Transaction: &t,
		Timestamp:   time.Now().UTC(),
	}
}

// NewDeletedEvent creates a deletion event for id.
func NewDeletedEvent(id string) *TransactionEvent {
	return &TransactionEvent{
		Kind:      TransactionDeleted,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event produced by ToJSON.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
