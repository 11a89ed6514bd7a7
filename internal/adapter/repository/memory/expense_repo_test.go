package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/expensetracker/internal/domain"
)

func newExpense(payee, date string) *domain.Expense {
	d, _ := domain.ParseDate(date)
	return &domain.Expense{
		Payee:  payee,
		Amount: decimal.NewFromInt(1),
		Date:   d,
		Extra:  map[string]any{"note": payee},
	}
}

func TestExpenseRepository_CreateAssignsSequentialIDs(t *testing.T) {
	repo := NewExpenseRepository()
	ctx := context.Background()

	first := newExpense("a", "2017-06-10")
	second := newExpense("b", "2017-06-11")

	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
}

func TestExpenseRepository_ListByDateKeepsOrderAndIsolatesCopies(t *testing.T) {
	repo := NewExpenseRepository()
	ctx := context.Background()

	for _, e := range []*domain.Expense{
		newExpense("Starbucks", "2017-06-10"),
		newExpense("Other", "2017-06-11"),
		newExpense("Zoo", "2017-06-10"),
	} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err := repo.ListByDate(ctx, domain.NewDate(2017, 6, 10))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 || got[0].Payee != "Starbucks" || got[1].Payee != "Zoo" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got[0].Payee = "mutated"
	got[0].Extra["note"] = "mutated"

	again, _ := repo.ListByDate(ctx, domain.NewDate(2017, 6, 10))
	if again[0].Payee != "Starbucks" || again[0].Extra["note"] != "Starbucks" {
		t.Fatalf("stored expense was mutated through a returned copy: %+v", again[0])
	}

	empty, err := repo.ListByDate(ctx, domain.NewDate(2020, 1, 1))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestExpenseRepository_CanceledContextStoresNothing(t *testing.T) {
	repo := NewExpenseRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newExpense("a", "2017-06-10")
	if err := repo.Create(ctx, e); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if e.ID != 0 || repo.Len() != 0 {
		t.Fatalf("expected nothing stored, got id=%d len=%d", e.ID, repo.Len())
	}
}

func TestExpenseRepository_ConcurrentCreates(t *testing.T) {
	repo := NewExpenseRepository()
	ctx := context.Background()

	const n = 200
	ids := make([]int64, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			e := newExpense("p", "2017-06-10")
			if err := repo.Create(ctx, e); err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			ids[i] = e.ID
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		if id < 1 || id > n || seen[id] {
			t.Fatalf("unexpected or duplicate id %d", id)
		}
		seen[id] = true
	}
}
