package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/expensetracker/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// ExpenseRepository defines data access for expenses.
type ExpenseRepository interface {
	// Create persists the expense and assigns expense.ID. Identifier assignment and
	// the insert are atomic; on error nothing is stored and expense is left untouched.
	Create(ctx context.Context, expense *domain.Expense) error
	// ListByDate returns the expenses recorded for date in recording order.
	ListByDate(ctx context.Context, date domain.Date) ([]*domain.Expense, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher delivers domain events to interested parties.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.ExpenseRecordedEvent) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// LedgerMetrics receives ledger counters.
type LedgerMetrics interface {
	ExpenseRecorded()
	ExpenseRejected(reason string)
	CacheLookup(hit bool)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes the key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
