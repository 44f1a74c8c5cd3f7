package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessCheck pings one backing dependency.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// BuildInfo identifies the running binary in health payloads.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	build   BuildInfo
	checks  []ReadinessCheck
	now     func() time.Time
	timeout time.Duration
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo attaches build metadata to health payloads.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthChecks registers readiness checks run by /readyz.
func WithHealthChecks(checks ...ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		h.checks = append(h.checks, checks...)
	}
}

// WithHealthClock overrides the time source.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.now = clock
		}
	}
}

// NewHealthHandlers constructs health handlers with optional build info and checks.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		now:     time.Now,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.now()
	}
	return h
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz runs the registered dependency checks and degrades to 503 when any fail.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]map[string]any{}
	details := []string{}

	for _, check := range h.checks {
		if check.Ping == nil {
			continue
		}
		started := h.now()
		err := check.Ping(ctx)
		latency := h.now().Sub(started)

		entry := map[string]any{
			"status":    "ok",
			"latencyMs": latency.Milliseconds(),
		}
		if err != nil {
			entry["status"] = "degraded"
			entry["error"] = err.Error()
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			details = append(details, check.Name+": "+err.Error())
		}
		checks[check.Name] = entry
	}

	writeJSONResponse(w, httpStatus, map[string]any{
		"status":  status,
		"checks":  checks,
		"details": details,
	})
}
