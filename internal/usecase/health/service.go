// Package health aggregates readiness probes of the index and its collaborators.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing model provider or cache; the index still serves.
	Degraded Status = "degraded"
	// Unhealthy indicates the index itself is unusable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentIndex      = "index"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
	ComponentCache      = "cache"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	component string
	critical  bool
	run       func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. embedding, generation and cache can be nil and are then not reported.
// Only the index is critical: its failure makes the whole report Unhealthy.
func New(index, embedding, generation Checker, cache CachePinger) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	s.probes = append(s.probes, probe{component: ComponentIndex, critical: true, run: index.HealthCheck})
	if embedding != nil {
		s.probes = append(s.probes, probe{component: ComponentEmbedding, run: embedding.HealthCheck})
	}
	if generation != nil {
		s.probes = append(s.probes, probe{component: ComponentGeneration, run: generation.HealthCheck})
	}
	if cache != nil {
		s.probes = append(s.probes, probe{component: ComponentCache, run: cache.Ping})
	}
	return s
}

// Check runs all probes concurrently under a shared deadline.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.probes))
		status = Healthy
	)
	// Probe errors are folded into the report, never returned to the group,
	// so one failure does not cancel the others.
	var g errgroup.Group
	for _, p := range s.probes {
		g.Go(func() error {
			res := CheckOK
			if err := p.run(ctx); err != nil {
				res = CheckError
			}

			mu.Lock()
			defer mu.Unlock()
			checks[p.component] = res
			switch {
			case res == CheckOK:
			case p.critical:
				status = Unhealthy
			case status == Healthy:
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}
