package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/usage"
)

// Action defines behavior when a token budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request with domain.ErrTokenQuotaExceeded.
	ActionReject Action = "reject"
)

// Counters names the day and month counters a usage update touches.
type Counters struct {
	Daily   string
	Monthly string
}

// Store persists budget counters.
type Store interface {
	Add(ctx context.Context, c Counters, tokens int64) error
	Load(ctx context.Context, c Counters) (daily, monthly int64, err error)
}

// Tracker is an in-memory token budget for one kind of model call,
// with optional write-behind persistence.
// Check never touches the store; Record updates memory first.
type Tracker struct {
	mu             sync.Mutex
	kind           usage.Kind
	provider       string
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	action         Action
	lastDayReset   time.Time
	lastMonthReset time.Time
	now            func() time.Time
	store          Store
	logger         *zap.Logger
}

// NewTracker creates a tracker. A zero limit means unlimited.
func NewTracker(
	kind usage.Kind, provider string, dailyLimit, monthlyLimit int64,
	action Action, logger *zap.Logger,
) *Tracker {
	t := &Tracker{
		kind:         kind,
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	now := t.now()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithStore attaches a persistence store and loads current counters.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.store = store
	t.loadFromStore(ctx)
	return t
}

func (t *Tracker) loadFromStore(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	daily, monthly, err := t.store.Load(ctx, t.counters(t.now()))
	if err != nil {
		t.logger.Warn("Failed to load budget from store",
			zap.String("kind", string(t.kind)), zap.String("provider", t.provider), zap.Error(err))
		return
	}
	t.dailyUsed, t.monthlyUsed = daily, monthly
	t.logger.Info("Budget loaded from store",
		zap.String("kind", string(t.kind)),
		zap.String("provider", t.provider),
		zap.Int64("daily_used", daily),
		zap.Int64("monthly_used", monthly),
	)
}

// Kind returns the model call kind this tracker accounts for.
func (t *Tracker) Kind() usage.Kind { return t.kind }

func (t *Tracker) dailyKey(at time.Time) string {
	return fmt.Sprintf("budget:%s:%s:daily:%s", t.kind, t.provider, at.Format("2006-01-02"))
}

func (t *Tracker) monthlyKey(at time.Time) string {
	return fmt.Sprintf("budget:%s:%s:monthly:%s", t.kind, t.provider, at.Format("2006-01"))
}

func (t *Tracker) counters(at time.Time) Counters {
	return Counters{Daily: t.dailyKey(at), Monthly: t.monthlyKey(at)}
}

// Check verifies the budget allows a new request.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()

	dailyExceeded := t.dailyLimit > 0 && t.dailyUsed >= t.dailyLimit
	monthlyExceeded := t.monthlyLimit > 0 && t.monthlyUsed >= t.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if t.action == ActionReject {
		return fmt.Errorf("%s budget: %w", t.kind, domain.ErrTokenQuotaExceeded)
	}

	t.logger.Warn("Token budget exceeded",
		zap.String("kind", string(t.kind)),
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("daily_limit", t.dailyLimit),
		zap.Int64("monthly_used", t.monthlyUsed),
		zap.Int64("monthly_limit", t.monthlyLimit),
	)
	return nil
}

// Record registers consumed tokens, then writes them behind to the store (if attached).
func (t *Tracker) Record(tokens int64) {
	t.mu.Lock()
	t.resetIfNeeded()
	t.dailyUsed += tokens
	t.monthlyUsed += tokens
	store := t.store
	counters := t.counters(t.now())
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request context: a cancelled request still consumed the tokens.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.Add(ctx, counters, tokens); err != nil {
		t.logger.Warn("Failed to persist budget",
			zap.String("daily_key", counters.Daily), zap.String("monthly_key", counters.Monthly), zap.Error(err))
	}
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (t *Tracker) RemainingDaily() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return remaining(t.dailyLimit, t.dailyUsed)
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (t *Tracker) RemainingMonthly() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return remaining(t.monthlyLimit, t.monthlyUsed)
}

// Snapshot returns the budget state for a period.
func (t *Tracker) Snapshot(period usage.Period) usage.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	if period == usage.PeriodDay {
		return usage.NewBudget(t.kind, t.dailyUsed, t.dailyLimit, remaining(t.dailyLimit, t.dailyUsed))
	}
	return usage.NewBudget(t.kind, t.monthlyUsed, t.monthlyLimit, remaining(t.monthlyLimit, t.monthlyUsed))
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (t *Tracker) resetIfNeeded() {
	now := t.now()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(t.lastDayReset) {
		t.dailyUsed = 0
		t.lastDayReset = today
	}
	if thisMonth.After(t.lastMonthReset) {
		t.monthlyUsed = 0
		t.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
