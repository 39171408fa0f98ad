package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"notes-retrieval/internal/contextutil"
)

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	checks             map[string]CheckFunc
	optional           map[string]bool
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. The index check is required.
func NewHealthHandler(index CheckFunc) *HealthHandler {
	return &HealthHandler{
		checks:             map[string]CheckFunc{"index": index},
		optional:           map[string]bool{},
		healthCheckTimeout: 5 * time.Second,
	}
}

// WithOptionalCheck adds a dependency whose failure degrades rather than
// fails the service.
func (h *HealthHandler) WithOptionalCheck(name string, check CheckFunc) *HealthHandler {
	h.checks[name] = check
	h.optional[name] = true
	return h
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if healthy or degraded, 503 Service Unavailable if a
// required dependency fails.
//
// swagger:route GET /api/health healthCheck
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	slices.Sort(names)

	checks := make(map[string]string, len(names))
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](checkCtx); err != nil {
			logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			checks[name] = "error"
			issues = append(issues, name+"_unavailable")
			if h.optional[name] {
				if status == "healthy" {
					status = "degraded"
				}
				continue
			}
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
