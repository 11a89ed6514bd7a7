package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/expensetracker/internal/domain"
)

// ExpenseRepository implements usecase.ExpenseRepository on a local SQLite file.
type ExpenseRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewExpenseRepository creates a new ExpenseRepository over an already migrated database.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{
		db:      db,
		queries: newQueries(db),
	}
}

// Create inserts the expense and sets its AUTOINCREMENT ID.
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	extra := []byte("{}")
	if len(expense.Extra) > 0 {
		var err error
		if extra, err = json.Marshal(expense.Extra); err != nil {
			return fmt.Errorf("encode extra fields: %w", err)
		}
	}

	id, err := r.queries.CreateExpense(ctx, createExpenseParams{
		Payee:      expense.Payee,
		Amount:     expense.Amount.String(),
		Date:       expense.Date.String(),
		Extra:      string(extra),
		RecordedAt: expense.RecordedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	expense.ID = id
	return nil
}

// ListByDate returns the expenses recorded on date ordered by ID.
func (r *ExpenseRepository) ListByDate(ctx context.Context, date domain.Date) ([]*domain.Expense, error) {
	rows, err := r.queries.ListExpensesByDate(ctx, date.String())
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	expenses := make([]*domain.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := rowToExpense(row)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		expenses = append(expenses, e)
	}

	return expenses, nil
}

// Ping checks the database file is usable.
func (r *ExpenseRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying database.
func (r *ExpenseRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func rowToExpense(row expenseRow) (*domain.Expense, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}

	date, err := domain.ParseDate(row.Date)
	if err != nil {
		return nil, err
	}

	recordedAt, err := time.Parse(time.RFC3339Nano, row.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}

	extra := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader([]byte(row.Extra)))
	dec.UseNumber()
	if err := dec.Decode(&extra); err != nil {
		return nil, fmt.Errorf("decode extra fields: %w", err)
	}

	return &domain.Expense{
		ID:         row.ID,
		Payee:      row.Payee,
		Amount:     amount,
		Date:       date,
		Extra:      extra,
		RecordedAt: recordedAt,
	}, nil
}
