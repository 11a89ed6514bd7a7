package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.ExpensesRecorded == nil || m.HTTPRequests == nil || m.CacheLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.HTTPRequests.WithLabelValues("GET", "/expenses/{date}", "200").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestLedgerCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ExpenseRecorded()
	m.ExpenseRecorded()
	m.ExpenseRejected("incomplete")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	if got := testutil.ToFloat64(m.ExpensesRecorded); got != 2 {
		t.Fatalf("expected 2 recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExpensesRejected.WithLabelValues("incomplete")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	New(registry)
}
