package prdrag

import (
	"context"
	"fmt"
	"time"

	domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// Budget kinds reported in UsageReport.Budgets.
const (
	BudgetEmbedding  = string(domusage.KindEmbedding)
	BudgetGeneration = string(domusage.KindGeneration)
)

// UsageReport contains token budgets for a time period.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Budgets     []BudgetStatus // embedding first, then generation
}

// Budget returns the status for kind (BudgetEmbedding or BudgetGeneration).
func (r UsageReport) Budget(kind string) (BudgetStatus, bool) {
	for _, b := range r.Budgets {
		if b.Kind == kind {
			return b, true
		}
	}
	return BudgetStatus{}, false
}

// BudgetStatus tracks token quota state for one kind of model call.
// An unlimited budget has TokensLimit 0 and TokensRemaining -1.
type BudgetStatus struct {
	Kind            string
	TokensUsed      int64
	TokensLimit     int64
	TokensRemaining int64
	IsExhausted     bool
}

// Unlimited reports whether no limit is configured for this kind.
func (b BudgetStatus) Unlimited() bool { return b.TokensLimit == 0 }

// Usage returns a token budget report for the given period.
// Clients built with New have no budgets, so every kind reports unlimited.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (rep UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opUsage, start, err) }()

	report, err := c.usageSvc.GetReport(ctx, domusage.Period(period))
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage: %w", err)
	}
	return fromReport(&report), nil
}

func fromReport(r *domusage.Report) UsageReport {
	out := UsageReport{
		Period:      UsagePeriod(r.Period()),
		PeriodStart: time.UnixMilli(r.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(r.PeriodEnd()).UTC(),
		Budgets:     make([]BudgetStatus, 0, len(r.Budgets())),
	}
	for _, b := range r.Budgets() {
		out.Budgets = append(out.Budgets, BudgetStatus{
			Kind:            string(b.Kind()),
			TokensUsed:      b.TokensUsed(),
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		})
	}
	return out
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}
