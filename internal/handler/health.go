package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is implemented by the Postgres repository, the Redis cache
// and the object store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	deps []namedChecker
}

type namedChecker struct {
	name    string
	checker HealthChecker
}

// NewHealthHandler creates a HealthHandler. Pass nil for any dependency that
// is not configured; it is reported but does not fail readiness.
func NewHealthHandler(db, cache, storage HealthChecker) *HealthHandler {
	return &HealthHandler{deps: []namedChecker{
		{"postgres", db},
		{"redis", cache},
		{"storage", storage},
	}}
}

// HealthResponse is the body of both endpoints.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Healthz reports that the process is serving. No dependencies are touched.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every configured dependency in parallel and answers 503 if
// any of them fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]CheckResult, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		if dep.checker == nil {
			results[i] = CheckResult{Status: "not configured"}
			continue
		}
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Ping(ctx)
			res := CheckResult{Status: "ok", LatencyMS: float64(time.Since(start).Microseconds()) / 1000}
			if err != nil {
				res.Status = "error"
				res.Error = err.Error()
			}
			results[i] = res
		}(i, dep.checker)
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(h.deps))
	status, code := "ok", http.StatusOK
	for i, dep := range h.deps {
		checks[dep.name] = results[i]
		if results[i].Status == "error" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}
