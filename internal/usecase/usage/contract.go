package usage

import domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"

// BudgetReader provides read-only access to one token budget.
type BudgetReader interface {
	Kind() domusage.Kind
	Snapshot(period domusage.Period) domusage.Budget
}
