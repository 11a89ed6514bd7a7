package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/expensetracker/internal/domain"
)

// Ledger validates, identifies, stores and queries expenses.
// It is safe for concurrent use as long as its repository is.
type Ledger struct {
	repo      ExpenseRepository
	cache     Cache
	cacheTTL  time.Duration
	publisher EventPublisher
	idGen     IDGenerator
	metrics   LedgerMetrics
	logger    zerolog.Logger
	now       func() time.Time
}

// LedgerOption configures optional Ledger collaborators.
type LedgerOption func(*Ledger)

// WithCache enables read-through caching of date queries.
func WithCache(cache Cache, ttl time.Duration) LedgerOption {
	return func(l *Ledger) {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		l.cache = cache
		l.cacheTTL = ttl
	}
}

// WithPublisher emits an ExpenseRecordedEvent for every stored expense.
func WithPublisher(publisher EventPublisher, idGen IDGenerator) LedgerOption {
	return func(l *Ledger) {
		l.publisher = publisher
		l.idGen = idGen
	}
}

// WithMetrics reports ledger counters.
func WithMetrics(m LedgerMetrics) LedgerOption {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger zerolog.Logger) LedgerOption {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates a new Ledger.
func NewLedger(repo ExpenseRepository, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		repo:    repo,
		metrics: nopMetrics{},
		logger:  zerolog.Nop(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Record validates the submitted fields and stores the expense.
// Validation failures are reported through the result, never as an error.
// A non-nil error means the store failed and nothing was recorded.
func (l *Ledger) Record(ctx context.Context, fields map[string]any) (domain.RecordResult, error) {
	expense, err := domain.NewExpense(fields)
	if err != nil {
		l.metrics.ExpenseRejected(rejectionReason(err))
		l.log(ctx).Debug().Err(err).Msg("expense rejected")

		return domain.Rejected(err), nil
	}

	expense.RecordedAt = l.now().UTC()

	if err := l.repo.Create(ctx, expense); err != nil {
		return domain.RecordResult{}, fmt.Errorf("record expense: %w", err)
	}

	l.metrics.ExpenseRecorded()
	l.log(ctx).Info().
		Int64("expense_id", expense.ID).
		Str("date", expense.Date.String()).
		Msg("expense recorded")

	l.invalidate(ctx, expense.Date)
	l.publish(ctx, expense)

	return domain.Recorded(expense.ID), nil
}

// ExpensesOn returns the expenses recorded for date (YYYY-MM-DD) in recording order.
// An unknown date yields an empty slice. A malformed date yields domain.ErrInvalidDate.
func (l *Ledger) ExpensesOn(ctx context.Context, date string) ([]*domain.Expense, error) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}

	if l.cache == nil {
		return l.list(ctx, d)
	}

	gen, err := l.generation(ctx, d)
	if err != nil {
		l.log(ctx).Warn().Err(err).Str("date", d.String()).Msg("cache generation lookup failed")
		return l.list(ctx, d)
	}

	key := expensesKey(d, gen)

	cached, err := l.cache.Get(ctx, key)
	switch {
	case err == nil:
		var expenses []*domain.Expense
		if err := json.Unmarshal([]byte(cached), &expenses); err == nil {
			l.metrics.CacheLookup(true)
			return expenses, nil
		}
		l.log(ctx).Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, ErrCacheMiss):
		l.log(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	l.metrics.CacheLookup(false)

	expenses, err := l.list(ctx, d)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(expenses)
	if err == nil {
		err = l.cache.Set(ctx, key, string(data), l.cacheTTL)
	}
	if err != nil {
		l.log(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return expenses, nil
}

func (l *Ledger) list(ctx context.Context, d domain.Date) ([]*domain.Expense, error) {
	expenses, err := l.repo.ListByDate(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("list expenses on %s: %w", d, err)
	}

	if expenses == nil {
		expenses = []*domain.Expense{}
	}

	return expenses, nil
}

// generation returns the current cache generation of a date. Every recorded
// expense bumps it, so entries written under an older generation are never read again.
func (l *Ledger) generation(ctx context.Context, d domain.Date) (int64, error) {
	raw, err := l.cache.Get(ctx, generationKey(d))
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(raw, 10, 64)
}

func (l *Ledger) invalidate(ctx context.Context, d domain.Date) {
	if l.cache == nil {
		return
	}

	_, err := l.cache.Incr(ctx, generationKey(d))
	if err == nil {
		return
	}

	// without a new generation the current list must go, or readers keep seeing it until it expires
	l.log(ctx).Warn().Err(err).Str("date", d.String()).Msg("cache generation bump failed, dropping cached list")

	gen, err := l.generation(ctx, d)
	if err == nil {
		err = l.cache.Delete(ctx, expensesKey(d, gen))
	}
	if err != nil {
		l.log(ctx).Error().Err(err).Str("date", d.String()).Msg("cache invalidation failed")
	}
}

func (l *Ledger) publish(ctx context.Context, expense *domain.Expense) {
	if l.publisher == nil {
		return
	}

	event := domain.NewExpenseRecordedEvent(l.idGen.Generate(), expense, l.now().UTC())
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.log(ctx).Error().Err(err).
			Str("event_id", event.ID).
			Int64("expense_id", expense.ID).
			Msg("failed to publish event")
	}
}

func (l *Ledger) log(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}

	return &l.logger
}

func generationKey(d domain.Date) string {
	return "expenses:gen:" + d.String()
}

func expensesKey(d domain.Date, gen int64) string {
	return fmt.Sprintf("expenses:%s:%d", d, gen)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAnObject):
		return "not_an_object"
	case errors.Is(err, domain.ErrExpenseIncomplete):
		return "incomplete"
	case errors.Is(err, domain.ErrInvalidPayee):
		return "invalid_payee"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, domain.ErrExtraTooLarge):
		return "extra_too_large"
	case errors.Is(err, domain.ErrInvalidExtra):
		return "invalid_extra"
	case errors.Is(err, domain.ErrReservedField):
		return "reserved_field"
	default:
		return "invalid"
	}
}

type nopMetrics struct{}

func (nopMetrics) ExpenseRecorded()       {}
func (nopMetrics) ExpenseRejected(string) {}
func (nopMetrics) CacheLookup(bool)       {}
