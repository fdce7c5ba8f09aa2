// Package budget persists token budget counters in the key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	budgetuc "github.com/kailas-cloud/prdrag/internal/usecase/budget"
)

// Default counter TTLs: a day key outlives its day, a month key its month.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

var _ budgetuc.Store = (*Store)(nil)

// kv is the consumer interface for budget counters (ISP).
type kv interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps the day and month counters of a tracker. Counters are created by
// INCRBY and get their TTL once, with EXPIRE NX, so they age out on their own.
type Store struct {
	kv       kv
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store. Non-positive TTLs fall back to the defaults.
func New(s kv, dailyTTL, monthTTL time.Duration) *Store {
	if dailyTTL <= 0 {
		dailyTTL = DefaultDailyTTL
	}
	if monthTTL <= 0 {
		monthTTL = DefaultMonthlyTTL
	}
	return &Store{kv: s, dailyTTL: dailyTTL, monthTTL: monthTTL}
}

// Add increments both counters. A failure on one counter does not skip the other.
func (s *Store) Add(ctx context.Context, c budgetuc.Counters, tokens int64) error {
	return errors.Join(
		s.incr(ctx, c.Daily, tokens, s.dailyTTL),
		s.incr(ctx, c.Monthly, tokens, s.monthTTL),
	)
}

// Load reads both counters in one round trip. Missing counters read as 0.
func (s *Store) Load(ctx context.Context, c budgetuc.Counters) (daily, monthly int64, err error) {
	vals, err := s.kv.MGet(ctx, []string{c.Daily, c.Monthly})
	if err != nil {
		return 0, 0, fmt.Errorf("budget load: %w", err)
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("budget load: got %d values for 2 counters", len(vals))
	}
	if daily, err = parseCounter(c.Daily, vals[0]); err != nil {
		return 0, 0, err
	}
	if monthly, err = parseCounter(c.Monthly, vals[1]); err != nil {
		return 0, 0, err
	}
	return daily, monthly, nil
}

func (s *Store) incr(ctx context.Context, key string, tokens int64, ttl time.Duration) error {
	if err := s.kv.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	if err := s.kv.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

func parseCounter(key string, raw []byte) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget counter %s: %w", key, err)
	}
	return v, nil
}
