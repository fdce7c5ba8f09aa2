package prdrag

import (
	"context"
	"fmt"
	"sort"
	"time"

	healthuc "github.com/kailas-cloud/prdrag/internal/usecase/health"
)

// HealthStatus is the aggregated health of a Client.
//
// Status is "ok", "degraded" (a model provider or the cache is failing, the
// index still serves) or "error" (the index is unusable). Checks maps each
// reported component to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Healthy reports whether every component passed.
func (h HealthStatus) Healthy() bool {
	return h.Status == string(healthuc.Healthy)
}

// Failing returns the names of failing components in sorted order.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, res := range h.Checks {
		if res != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health checks the index, the embedder, the generator and the cache (when configured).
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}

	var err error
	if !h.Healthy() {
		err = fmt.Errorf("health %s: failing %v", h.Status, h.Failing())
	}
	c.obs.observe(opHealth, start, err)
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
