package memory

import (
	"context"
	"sync"

	"github.com/iho/expensetracker/internal/domain"
)

// ExpenseRepository implements usecase.ExpenseRepository in process memory.
// Identifiers start at 1 and are not preserved across restarts.
type ExpenseRepository struct {
	mu       sync.RWMutex
	lastID   int64
	expenses []*domain.Expense
	byDate   map[string][]int
}

// NewExpenseRepository creates an empty ExpenseRepository.
func NewExpenseRepository() *ExpenseRepository {
	return &ExpenseRepository{
		byDate: make(map[string][]int),
	}
}

// Create stores a copy of the expense and assigns the next identifier.
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	stored := cloneExpense(expense)
	stored.ID = r.lastID

	key := stored.Date.String()
	r.byDate[key] = append(r.byDate[key], len(r.expenses))
	r.expenses = append(r.expenses, stored)

	expense.ID = stored.ID
	return nil
}

// ListByDate returns copies of the expenses recorded on date, in recording order.
func (r *ExpenseRepository) ListByDate(ctx context.Context, date domain.Date) ([]*domain.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.byDate[date.String()]
	result := make([]*domain.Expense, 0, len(idx))
	for _, i := range idx {
		result = append(result, cloneExpense(r.expenses[i]))
	}

	return result, nil
}

// Ping always succeeds.
func (r *ExpenseRepository) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored expenses.
func (r *ExpenseRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.expenses)
}

func cloneExpense(e *domain.Expense) *domain.Expense {
	c := *e
	if e.Extra != nil {
		c.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}

	return &c
}
