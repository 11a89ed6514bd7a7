package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/expensetracker/internal/domain"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func sampleExpense() *domain.Expense {
	return &domain.Expense{
		Payee:      "Zoo",
		Amount:     decimal.RequireFromString("15.25"),
		Date:       domain.NewDate(2017, time.June, 10),
		Extra:      map[string]any{"note": "tickets"},
		RecordedAt: time.Date(2017, time.June, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestExpenseRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("INSERT INTO expenses").
		WithArgs("Zoo", pgxmock.AnyArg(), pgxmock.AnyArg(), []byte(`{"note":"tickets"}`), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := newExpenseRepositoryWithPool(pool, nil)
	expense := sampleExpense()

	if err := repo.Create(context.Background(), expense); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expense.ID != 42 {
		t.Fatalf("expected id 42, got %d", expense.ID)
	}

	assertExpectations(t, pool)
}

func TestExpenseRepositoryCreateRetriesDeadlock(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("INSERT INTO expenses").
		WillReturnError(&pgconn.PgError{Code: pgErrDeadlock})
	pool.ExpectQuery("INSERT INTO expenses").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	retrier := NewRetrier(zerolog.Nop())
	retrier.initialInterval = time.Millisecond
	retrier.maxInterval = 2 * time.Millisecond

	repo := newExpenseRepositoryWithPool(pool, retrier)
	expense := sampleExpense()

	if err := repo.Create(context.Background(), expense); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expense.ID != 7 {
		t.Fatalf("expected id 7, got %d", expense.ID)
	}

	assertExpectations(t, pool)
}

func TestExpenseRepositoryCreateFailureLeavesID(t *testing.T) {
	pool := newMockPool(t)
	dbErr := errors.New("connection reset")
	pool.ExpectQuery("INSERT INTO expenses").WillReturnError(dbErr)

	repo := newExpenseRepositoryWithPool(pool, nil)
	expense := sampleExpense()

	err := repo.Create(context.Background(), expense)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected %v, got %v", dbErr, err)
	}
	if expense.ID != 0 {
		t.Fatalf("expected id to stay unset, got %d", expense.ID)
	}
}

func TestExpenseRepositoryListByDate(t *testing.T) {
	pool := newMockPool(t)
	day := time.Date(2017, time.June, 10, 0, 0, 0, 0, time.UTC)
	recorded := time.Date(2017, time.June, 10, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "payee", "amount", "date", "extra", "recorded_at"}).
		AddRow(int64(1), "Starbucks", "5.75", day, []byte(`{}`), recorded).
		AddRow(int64(2), "Zoo", "15.25", day, []byte(`{"visitors":3}`), recorded)
	pool.ExpectQuery("SELECT (.+) FROM expenses").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	repo := newExpenseRepositoryWithPool(pool, nil)

	expenses, err := repo.ListByDate(context.Background(), domain.NewDate(2017, time.June, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}
	if expenses[0].Payee != "Starbucks" || expenses[1].Payee != "Zoo" {
		t.Fatalf("unexpected order: %s, %s", expenses[0].Payee, expenses[1].Payee)
	}
	if !expenses[1].Amount.Equal(decimal.RequireFromString("15.25")) {
		t.Fatalf("unexpected amount: %s", expenses[1].Amount)
	}
	if expenses[1].Date.String() != "2017-06-10" {
		t.Fatalf("unexpected date: %s", expenses[1].Date)
	}
	if got, ok := expenses[1].Extra["visitors"].(json.Number); !ok || got.String() != "3" {
		t.Fatalf("unexpected extra: %v", expenses[1].Extra)
	}

	assertExpectations(t, pool)
}

func TestExpenseRepositoryListByDateEmpty(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("SELECT (.+) FROM expenses").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "payee", "amount", "date", "extra", "recorded_at"}))

	repo := newExpenseRepositoryWithPool(pool, nil)

	expenses, err := repo.ListByDate(context.Background(), domain.NewDate(2017, time.June, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expenses == nil || len(expenses) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", expenses)
	}
}

func TestExpenseRepositoryPing(t *testing.T) {
	pool := newMockPool(t)
	pingErr := errors.New("down")
	pool.ExpectPing().WillReturnError(pingErr)

	repo := newExpenseRepositoryWithPool(pool, nil)
	if err := repo.Ping(context.Background()); !errors.Is(err, pingErr) {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"5.75", "0.0001", "1000000000000", "15.250"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Fatalf("round trip of %s gave %s", s, got)
		}
	}
}
