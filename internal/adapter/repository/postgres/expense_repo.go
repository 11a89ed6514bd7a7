package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/expensetracker/internal/domain"
	"github.com/iho/expensetracker/internal/infrastructure/postgres/generated"
)

type pgxPool interface {
	generated.DBTX
	Ping(ctx context.Context) error
}

// ExpenseRepository implements usecase.ExpenseRepository on PostgreSQL.
// Identifiers come from an IDENTITY column, so they keep increasing across restarts.
type ExpenseRepository struct {
	pool    pgxPool
	queries *generated.Queries
	retrier *Retrier
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(pool *pgxpool.Pool, retrier *Retrier) *ExpenseRepository {
	return newExpenseRepositoryWithPool(pool, retrier)
}

func newExpenseRepositoryWithPool(pool pgxPool, retrier *Retrier) *ExpenseRepository {
	return &ExpenseRepository{
		pool:    pool,
		queries: generated.New(pool),
		retrier: retrier,
	}
}

// Create inserts the expense and sets its database-assigned ID.
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	extra, err := encodeExtra(expense.Extra)
	if err != nil {
		return err
	}

	params := generated.CreateExpenseParams{
		Payee:      expense.Payee,
		Amount:     decimalToNumeric(expense.Amount),
		Date:       dateToPgDate(expense.Date),
		Extra:      extra,
		RecordedAt: timeToPgTimestamptz(expense.RecordedAt),
	}

	var id int64
	insert := func() error {
		id, err = r.queries.CreateExpense(ctx, params)
		return err
	}

	if r.retrier != nil {
		err = r.retrier.Retry(ctx, insert)
	} else {
		err = insert()
	}
	if err != nil {
		return err
	}

	expense.ID = id
	return nil
}

// ListByDate returns the expenses recorded on date ordered by ID.
func (r *ExpenseRepository) ListByDate(ctx context.Context, date domain.Date) ([]*domain.Expense, error) {
	rows, err := r.queries.ListExpensesByDate(ctx, dateToPgDate(date))
	if err != nil {
		return nil, err
	}

	expenses := make([]*domain.Expense, 0, len(rows))
	for _, row := range rows {
		expense, err := rowToExpense(row)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, nil
}

// Ping checks database connectivity.
func (r *ExpenseRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Count returns the number of stored expenses.
func (r *ExpenseRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountExpenses(ctx)
}

func rowToExpense(row generated.Expense) (*domain.Expense, error) {
	extra, err := decodeExtra(row.Extra)
	if err != nil {
		return nil, fmt.Errorf("expense %d: %w", row.ID, err)
	}

	return &domain.Expense{
		ID:         row.ID,
		Payee:      row.Payee,
		Amount:     numericToDecimal(row.Amount),
		Date:       domain.Date{Time: row.Date.Time},
		Extra:      extra,
		RecordedAt: row.RecordedAt.Time,
	}, nil
}

func encodeExtra(extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode extra fields: %w", err)
	}

	return data, nil
}

func decodeExtra(data []byte) (map[string]any, error) {
	extra := map[string]any{}
	if len(data) == 0 {
		return extra, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&extra); err != nil {
		return nil, fmt.Errorf("decode extra fields: %w", err)
	}

	return extra, nil
}
