// Package storage persists the transaction collection as one JSON array
// under a single key of a kv.Store.
//
// Every operation reads the whole collection, modifies it and writes it
// back. A mutex serializes these cycles inside the process; separate
// processes sharing a store are last-write-wins.
//
// Records that fail to decode are skipped on read and written back
// unchanged, after the readable ones, so a mutation never drops them.
package storage

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "finance-transactions"

type Repository struct {
	mu      sync.Mutex
	store   kv.Store
	key     string
	now     func() time.Time
	entropy io.Reader
	logger  *log.Logger
}

// collection is the decoded stored value. unreadable holds the raw
// records that could not be decoded.
type collection struct {
	txs        []core.Transaction
	unreadable []json.RawMessage
}

type Option func(*Repository)

// WithClock replaces time.Now for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithEntropy replaces the random source of generated ids.
func WithEntropy(entropy io.Reader) Option {
	return func(r *Repository) { r.entropy = entropy }
}

// WithKey stores the collection under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger.WithComponent(log.ComponentStorage)
		}
	}
}

func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:   store,
		key:     DefaultKey,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		logger:  log.FromContext(context.Background()).WithComponent(log.ComponentStorage),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the storage key of the collection.
func (r *Repository) Key() string { return r.key }

// ListAll returns every readable stored transaction in storage order. Read
// failures and a malformed collection are logged and yield an empty list;
// single malformed records are logged and left out.
func (r *Repository) ListAll(ctx context.Context) []core.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx).txs
}

// SaveAll replaces the stored collection. Failures are logged and the
// previous value is left in place.
func (r *Repository) SaveAll(ctx context.Context, txs []core.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(ctx, collection{txs: txs})
}

// Add stores a new transaction built from in and returns it.
func (r *Repository) Add(ctx context.Context, in core.TransactionInput) core.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.load(ctx)
	now := core.NewTimestamp(r.now())
	t := core.Transaction{
		ID:          r.newID(now.Time, c.txs),
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Type:        in.Type,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.txs = append(c.txs, t)
	r.save(ctx, c)
	return t
}

// Update merges patch into the transaction with the given id. The second
// result is false when no such transaction exists.
func (r *Repository) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.load(ctx)
	for i, t := range c.txs {
		if t.ID != id {
			continue
		}
		updated := patch.Apply(t)
		updated.UpdatedAt = r.nextUpdatedAt(t.UpdatedAt)
		c.txs[i] = updated
		r.save(ctx, c)
		return updated, true
	}
	return core.Transaction{}, false
}

// Remove deletes the transaction with the given id and reports whether one
// was removed. Nothing is written when the id is unknown.
func (r *Repository) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.load(ctx)
	kept := make([]core.Transaction, 0, len(c.txs))
	for _, t := range c.txs {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(c.txs) {
		return false
	}
	c.txs = kept
	r.save(ctx, c)
	return true
}

func (r *Repository) load(ctx context.Context) collection {
	empty := collection{txs: []core.Transaction{}}
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read transactions",
			log.FieldKey, r.key,
			log.FieldOperation, log.OpRead,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldError, err)
		return empty
	}
	if !found || len(raw) == 0 {
		return empty
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		r.logger.ErrorContext(ctx, "Stored transactions are malformed",
			log.FieldKey, r.key,
			log.FieldOperation, log.OpParse,
			log.FieldErrorType, log.ErrorTypeCodec,
			log.FieldError, err)
		return empty
	}

	c := collection{txs: make([]core.Transaction, 0, len(records))}
	for i, rec := range records {
		var t core.Transaction
		if err := json.Unmarshal(rec, &t); err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed transaction record",
				log.FieldKey, r.key,
				"index", i,
				log.FieldOperation, log.OpParse,
				log.FieldErrorType, log.ErrorTypeCodec,
				log.FieldError, err)
			c.unreadable = append(c.unreadable, rec)
			continue
		}
		if t.Category == "" {
			t.Category = core.DefaultCategory(t.Type)
		}
		c.txs = append(c.txs, t)
	}
	return c
}

func (r *Repository) save(ctx context.Context, c collection) {
	records := make([]any, 0, len(c.txs)+len(c.unreadable))
	for _, t := range c.txs {
		records = append(records, t)
	}
	for _, rec := range c.unreadable {
		records = append(records, rec)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to encode transactions",
			log.FieldKey, r.key,
			log.FieldOperation, log.OpSave,
			log.FieldErrorType, log.ErrorTypeCodec,
			log.FieldError, err)
		return
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		r.logger.ErrorContext(ctx, "Failed to save transactions",
			log.FieldKey, r.key,
			log.FieldOperation, log.OpSave,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldCount, len(c.txs),
			log.FieldError, err)
		return
	}
	r.logger.DebugContext(ctx, "Saved transactions", log.FieldKey, r.key, log.FieldCount, len(c.txs))
}

// newID draws ULIDs until one is not already in use.
func (r *Repository) newID(at time.Time, existing []core.Transaction) string {
	used := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		used[t.ID] = struct{}{}
	}
	for {
		id := ulid.MustNew(ulid.Timestamp(at), r.entropy).String()
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// nextUpdatedAt keeps updatedAt strictly increasing even when the clock
// stalls or goes backwards.
func (r *Repository) nextUpdatedAt(prev core.Timestamp) core.Timestamp {
	now := core.NewTimestamp(r.now())
	if !prev.IsZero() && !now.After(prev.Time) {
		return core.NewTimestamp(prev.Add(time.Millisecond))
	}
	return now
}
