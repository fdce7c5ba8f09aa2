package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/prdrag/internal/domain"
	domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"
)

// --- Mock ---

type mockBudgetReader struct {
	kind    domusage.Kind
	daily   domusage.Budget
	monthly domusage.Budget
}

func (m *mockBudgetReader) Kind() domusage.Kind { return m.kind }

func (m *mockBudgetReader) Snapshot(p domusage.Period) domusage.Budget {
	if p == domusage.PeriodDay {
		return m.daily
	}
	return m.monthly
}

func fixedNow(svc *Service) time.Time {
	now := time.Date(2026, 2, 14, 15, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return now
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	gen := &mockBudgetReader{
		kind:    domusage.KindGeneration,
		daily:   domusage.NewBudget(domusage.KindGeneration, 3000, 10000, 7000),
		monthly: domusage.NewBudget(domusage.KindGeneration, 50000, 100000, 50000),
	}
	svc := New(gen)
	fixedNow(svc)

	r, err := svc.GetReport(context.Background(), domusage.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}

	dayStart := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", dayStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd())
	}

	b, ok := r.Budget(domusage.KindGeneration)
	if !ok {
		t.Fatal("generation budget missing")
	}
	if b.TokensLimit() != 10000 || b.TokensRemaining() != 7000 || b.TokensUsed() != 3000 {
		t.Errorf("unexpected generation budget %+v", b)
	}
	if b.IsExhausted() {
		t.Error("budget should not be exhausted")
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	emb := &mockBudgetReader{
		kind:    domusage.KindEmbedding,
		monthly: domusage.NewBudget(domusage.KindEmbedding, 80000, 100000, 20000),
	}
	svc := New(emb)
	fixedNow(svc)

	r, err := svc.GetReport(context.Background(), domusage.PeriodMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	monthStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != monthStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", monthStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd())
	}

	b, _ := r.Budget(domusage.KindEmbedding)
	if b.TokensLimit() != 100000 || b.TokensUsed() != 80000 {
		t.Errorf("unexpected embedding budget %+v", b)
	}
}

func TestGetReport_BothKindsAlwaysPresent(t *testing.T) {
	svc := New()
	r, err := svc.GetReport(context.Background(), domusage.PeriodDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Budgets()) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(r.Budgets()))
	}
	for _, k := range []domusage.Kind{domusage.KindEmbedding, domusage.KindGeneration} {
		b, ok := r.Budget(k)
		if !ok {
			t.Fatalf("budget %s missing", k)
		}
		if b.TokensLimit() != 0 || b.TokensRemaining() != -1 || b.IsExhausted() {
			t.Errorf("%s: expected unlimited budget, got %+v", k, b)
		}
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	gen := &mockBudgetReader{
		kind:  domusage.KindGeneration,
		daily: domusage.NewBudget(domusage.KindGeneration, 5000, 5000, 0),
	}
	r, _ := New(gen).GetReport(context.Background(), domusage.PeriodDay)

	b, _ := r.Budget(domusage.KindGeneration)
	if !b.IsExhausted() {
		t.Error("budget should be exhausted when remaining is 0")
	}
}

func TestGetReport_UnknownPeriod(t *testing.T) {
	_, err := New().GetReport(context.Background(), domusage.Period("total"))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
