package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// Kind names the model call a token budget applies to.
type Kind string

// Budget kinds.
const (
	KindEmbedding  Kind = "embedding"
	KindGeneration Kind = "generation"
)

// Budget is a token budget snapshot for one kind of model call.
type Budget struct {
	kind            Kind
	tokensUsed      int64
	tokensLimit     int64 // 0 = unlimited
	tokensRemaining int64 // -1 = unlimited
}

// NewBudget creates a Budget snapshot.
func NewBudget(kind Kind, used, limit, remaining int64) Budget {
	return Budget{kind: kind, tokensUsed: used, tokensLimit: limit, tokensRemaining: remaining}
}

// Kind returns the model call kind.
func (b Budget) Kind() Kind { return b.kind }

// TokensUsed returns tokens consumed in the period.
func (b Budget) TokensUsed() int64 { return b.tokensUsed }

// TokensLimit returns the token cap (0 if unlimited).
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left (-1 if unlimited).
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether a limited budget is spent.
func (b Budget) IsExhausted() bool { return b.tokensLimit > 0 && b.tokensRemaining <= 0 }

// Report is a token usage report for a time period.
type Report struct {
	period      Period
	periodStart int64 // unix millis
	periodEnd   int64 // unix millis, also the reset time
	budgets     []Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, budgets ...Budget) Report {
	return Report{period: period, periodStart: start, periodEnd: end, budgets: budgets}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Budgets returns per-kind budget snapshots.
func (r *Report) Budgets() []Budget { return r.budgets }

// Budget returns the snapshot for kind, if present.
func (r *Report) Budget(kind Kind) (Budget, bool) {
	for _, b := range r.budgets {
		if b.kind == kind {
			return b, true
		}
	}
	return Budget{}, false
}
