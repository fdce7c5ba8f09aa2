package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/prdrag/internal/domain"
	domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"
)

var kinds = []domusage.Kind{domusage.KindEmbedding, domusage.KindGeneration}

// Service handles usage reporting.
type Service struct {
	readers map[domusage.Kind]BudgetReader
	now     func() time.Time
}

// New creates a Service. Kinds without a reader are reported as unlimited with no usage.
func New(readers ...BudgetReader) *Service {
	m := make(map[domusage.Kind]BudgetReader, len(readers))
	for _, r := range readers {
		if r != nil {
			m[r.Kind()] = r
		}
	}
	return &Service{readers: m, now: time.Now}
}

// GetReport builds a usage report for the given period with one budget per kind.
func (s *Service) GetReport(_ context.Context, period domusage.Period) (domusage.Report, error) {
	now := s.now().UTC()
	var start, end time.Time

	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		return domusage.Report{}, fmt.Errorf("unknown period %q: %w", period, domain.ErrInvalidArgument)
	}

	budgets := make([]domusage.Budget, 0, len(kinds))
	for _, k := range kinds {
		if r, ok := s.readers[k]; ok {
			budgets = append(budgets, r.Snapshot(period))
			continue
		}
		budgets = append(budgets, domusage.NewBudget(k, 0, 0, -1))
	}

	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), budgets...), nil
}
