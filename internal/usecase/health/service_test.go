package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, &mockChecker{}, &mockCachePinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentIndex, ComponentEmbedding, ComponentGeneration, ComponentCache} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_IndexError(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("index is empty")}, &mockChecker{}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentIndex] != CheckError {
		t.Errorf("expected index %q, got %q", CheckError, r.Checks[ComponentIndex])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{err: errors.New("timeout")}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
	if r.Checks[ComponentGeneration] != CheckOK {
		t.Errorf("expected generation %q, got %q", CheckOK, r.Checks[ComponentGeneration])
	}
}

func TestCheck_GenerationError(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, &mockChecker{err: errors.New("breaker open")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentGeneration] != CheckError {
		t.Error("expected generation error")
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockChecker{}, &mockChecker{}, &mockChecker{}, &mockCachePinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Error("expected cache error")
	}
}

func TestCheck_IndexAndProvidersFail(t *testing.T) {
	svc := New(
		&mockChecker{err: errors.New("empty")},
		&mockChecker{err: errors.New("emb down")},
		&mockChecker{err: errors.New("gen down")},
		nil,
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(&mockChecker{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the index check, got %v", r.Checks)
	}
	if _, ok := r.Checks[ComponentCache]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
}

func TestCheck_AppliesTimeout(t *testing.T) {
	var sawDeadline bool
	idx := checkerFunc(func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	})
	New(idx, nil, nil, nil).Check(context.Background())

	if !sawDeadline {
		t.Error("checks should run under a deadline")
	}
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestCheck_RunsProbesConcurrently(t *testing.T) {
	// Each probe blocks until all three have started.
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	blocking := checkerFunc(func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	done := make(chan Report, 1)
	go func() { done <- New(blocking, blocking, blocking, nil).Check(context.Background()) }()

	for range 3 {
		<-started
	}
	close(release)

	if r := <-done; r.Status != Healthy {
		t.Errorf("expected %q, got %q (%v)", Healthy, r.Status, r.Checks)
	}
}

func TestCheck_SlowProbeTimesOut(t *testing.T) {
	svc := New(&mockChecker{}, checkerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), nil, nil)
	svc.timeout = 20 * time.Millisecond

	r := svc.Check(context.Background())
	if r.Status != Degraded || r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected a degraded report with the embedding check failed, got %+v", r)
	}
}
