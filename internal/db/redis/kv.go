package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/prdrag/internal/db"
)

// MGet reads several keys in one round trip. The result is aligned with keys;
// a missing key yields a nil entry.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}

	msgs, err := s.client.Do(ctx, s.client.B().Mget().Key(full...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	if len(msgs) != len(keys) {
		return nil, &db.Error{Op: db.OpMGet, Err: fmt.Errorf("got %d values for %d keys", len(msgs), len(keys))}
	}

	out := make([][]byte, len(keys))
	for i, m := range msgs {
		if m.IsNil() {
			continue
		}
		if out[i], err = m.AsBytes(); err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
	}
	return out, nil
}

// Set stores value at key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.exec(ctx, db.OpSet, s.client.B().Set().Key(s.key(key)).Value(string(value)).Build())
}

// SetWithTTL stores value at key, expiring after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.exec(ctx, db.OpSet, s.client.B().Set().Key(s.key(key)).Value(string(value)).Ex(ttl).Build())
}

// IncrBy atomically adds val to the integer at key, creating it at 0.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	return s.exec(ctx, db.OpIncrBy, s.client.B().Incrby().Key(s.key(key)).Increment(val).Build())
}

// Expire sets the TTL of key, rounded up to whole seconds. With nx the TTL is
// only set when the key has none yet (EXPIRE NX).
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		// EXPIRE 0 would delete the key.
		secs = 1
	}
	expire := s.client.B().Expire().Key(s.key(key)).Seconds(secs)
	if nx {
		return s.exec(ctx, db.OpExpire, expire.Nx().Build())
	}
	return s.exec(ctx, db.OpExpire, expire.Build())
}
