package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/locale"
	"gastos/internal/store"
)

// EventTransactionAdded is emitted after every successful Add.
const EventTransactionAdded = "transaction.added"

// Event is delivered to observers after the store changed.
type Event struct {
	Name        string
	Transaction core.Transaction
	Ref         string
	Revision    uint64
}

// Observer reacts to store events. Observers run synchronously after the
// append and must not call Add.
type Observer func(ctx context.Context, ev Event)

// TransactionStore is the session's ordered transaction sequence. It
// validates input, stamps new transactions and answers aggregate queries
// against a pluggable backend.
type TransactionStore struct {
	backend   store.Backend
	formatter *locale.Formatter
	now       func() time.Time
	newID     func() string

	mu        sync.RWMutex
	observers []Observer
	revision  atomic.Uint64
}

// Option customizes a TransactionStore.
type Option func(*TransactionStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionStore) { s.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *TransactionStore) { s.newID = gen }
}

func NewTransactionStore(backend store.Backend, formatter *locale.Formatter, opts ...Option) *TransactionStore {
	s := &TransactionStore{
		backend:   backend,
		formatter: formatter,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates in and appends a new transaction. Invalid input returns a
// *core.ValidationError and leaves the sequence untouched.
func (s *TransactionStore) Add(ctx context.Context, in core.Input) (core.Transaction, error) {
	entry, err := in.Validate()
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	tx := core.Transaction{
		ID:          s.newID(),
		Description: entry.Description,
		Amount:      entry.Amount,
		Category:    entry.Category,
		Type:        entry.Type,
		CreatedAt:   now,
		Date:        s.formatter.Date(now),
	}

	ref, err := s.backend.Append(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	rev := s.revision.Add(1)
	s.notify(ctx, Event{
		Name:        EventTransactionAdded,
		Transaction: tx,
		Ref:         ref,
		Revision:    rev,
	})

	return tx, nil
}

// All returns a snapshot of the sequence in insertion order.
func (s *TransactionStore) All(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.backend.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// TotalByType sums the amounts of type t. Zero on an empty store.
func (s *TransactionStore) TotalByType(ctx context.Context, t core.Type) (decimal.Decimal, error) {
	txs, err := s.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.TotalByType(txs, t), nil
}

// Balance is the income total minus the expense total.
func (s *TransactionStore) Balance(ctx context.Context) (decimal.Decimal, error) {
	txs, err := s.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.TotalByType(txs, core.Income).Sub(core.TotalByType(txs, core.Expense)), nil
}

// Summary computes every aggregate from a single snapshot.
func (s *TransactionStore) Summary(ctx context.Context) (core.Summary, error) {
	txs, err := s.All(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(txs), nil
}

// Revision is bumped on every successful Add.
func (s *TransactionStore) Revision() uint64 {
	return s.revision.Load()
}

// Formatter returns the locale strategy used for display dates.
func (s *TransactionStore) Formatter() *locale.Formatter {
	return s.formatter
}

// Subscribe registers an observer for future events.
func (s *TransactionStore) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *TransactionStore) notify(ctx context.Context, ev Event) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()

	for _, o := range observers {
		o(ctx, ev)
	}
}

// Close releases the backend when it holds resources.
func (s *TransactionStore) Close() error {
	if c, ok := s.backend.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close backend: %w", err)
		}
	}
	return nil
}

// TransactionPublisher announces stored transactions to a broker.
type TransactionPublisher interface {
	PublishTransactionAdded(ctx context.Context, msg *amqp.TransactionAddedMessage) error
}

// PublishingObserver forwards transaction.added events to pub. Publish
// failures are logged; the transaction is already stored.
func PublishingObserver(pub TransactionPublisher) Observer {
	return func(ctx context.Context, ev Event) {
		if ev.Name != EventTransactionAdded {
			return
		}
		tx := ev.Transaction
		msg := amqp.NewTransactionAddedMessage(tx.ID, tx.Type.String(), tx.Category, tx.Amount.String(), tx.Date)
		if err := pub.PublishTransactionAdded(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"id", tx.ID,
				"error", err)
		}
	}
}
