package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Repository is the persistence the Tracker writes through.
type Repository interface {
	ListAll(ctx context.Context) []core.Transaction
	Add(ctx context.Context, in core.TransactionInput) core.Transaction
	Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, bool)
	Remove(ctx context.Context, id string) bool
}

// EventPublisher receives one event per successful mutation.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// Tracker owns the in-memory transaction list. Mutations are written
// through the repository first and then applied to the list without
// re-reading storage.
type Tracker struct {
	repo      Repository
	publisher EventPublisher
	logger    *log.Logger
	events    *log.StructuredLogger

	mu      sync.RWMutex
	txs     []core.Transaction
	version uint64
	loaded  bool
}

// NewTracker creates a tracker. publisher may be nil.
func NewTracker(repo Repository, publisher EventPublisher, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentTracker)
	return &Tracker{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// Load replaces the list with the stored collection.
func (t *Tracker) Load(ctx context.Context) {
	txs := t.repo.ListAll(ctx)

	t.mu.Lock()
	t.txs = txs
	t.version++
	t.loaded = true
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Loaded transactions", log.FieldCount, len(txs))
}

// Loaded reports whether Load has completed.
func (t *Tracker) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}

// Transactions returns a copy of the current list.
func (t *Tracker) Transactions() []core.Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]core.Transaction(nil), t.txs...)
}

// Snapshot returns the list together with the version it belongs to.
func (t *Tracker) Snapshot() ([]core.Transaction, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]core.Transaction(nil), t.txs...), t.version
}

// Version changes whenever the list changes.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Get looks id up in the in-memory list.
func (t *Tracker) Get(id string) (core.Transaction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, tx := range t.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Add stores a new transaction and appends it to the list.
func (t *Tracker) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	t.mu.Lock()
	tx := t.repo.Add(ctx, in)
	t.txs = append(t.txs, tx)
	t.version++
	t.mu.Unlock()

	t.events.LogTransaction(ctx, log.OpCreate, tx.ID, tx.Type.String(), tx.Category, tx.Amount.String())
	t.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionCreated, tx))
	return tx, nil
}

// Edit replaces every editable field of the transaction with id.
func (t *Tracker) Edit(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction: %w", err)
	}

	t.mu.Lock()
	tx, ok := t.repo.Update(ctx, id, in.Patch())
	if !ok {
		t.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("edit %s: %w", id, ErrTransactionNotFound)
	}
	replaced := false
	for i := range t.txs {
		if t.txs[i].ID == id {
			t.txs[i] = tx
			replaced = true
			break
		}
	}
	if !replaced {
		// stored but not yet in memory, e.g. written by another process
		t.txs = append(t.txs, tx)
	}
	t.version++
	t.mu.Unlock()

	t.events.LogTransaction(ctx, log.OpUpdate, tx.ID, tx.Type.String(), tx.Category, tx.Amount.String())
	t.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionUpdated, tx))
	return tx, nil
}

// Delete removes the transaction with id.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	if !t.repo.Remove(ctx, id) {
		t.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrTransactionNotFound)
	}
	kept := t.txs[:0:0]
	for _, tx := range t.txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	t.txs = kept
	t.version++
	t.mu.Unlock()

	t.events.LogTransaction(ctx, log.OpDelete, id, "", "", "")
	t.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (t *Tracker) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		// the mutation is already stored; the event feed is best effort
		t.logger.WarnContext(ctx, "Failed to publish transaction event",
			"kind", ev.Kind,
			log.FieldTransactionID, ev.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}
