package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeExpenseRecorded = "expense.recorded"
)

// ExpenseRecordedEvent is emitted after an expense has been persisted.
type ExpenseRecordedEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	ExpenseID  int64           `json:"expense_id"`
	Payee      string          `json:"payee"`
	Amount     decimal.Decimal `json:"amount"`
	Date       Date            `json:"date"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewExpenseRecordedEvent builds the event for a stored expense.
func NewExpenseRecordedEvent(id string, e *Expense, at time.Time) *ExpenseRecordedEvent {
	return &ExpenseRecordedEvent{
		ID:         id,
		Type:       EventTypeExpenseRecorded,
		ExpenseID:  e.ID,
		Payee:      e.Payee,
		Amount:     e.Amount,
		Date:       e.Date,
		OccurredAt: at,
	}
}
