// Package health provides health checking functionality for the catalog server.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/medications-catalog/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	registry  interfaces.SessionRegistry
	startTime time.Time
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(registry interfaces.SessionRegistry, startTime time.Time) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		registry:  registry,
		startTime: startTime,
		now:       time.Now,
	}
}

// HealthCheck derives the server health from the upstream fetch history.
// A server that never fetched anything is healthy; it is unhealthy when
// every fetch so far has failed and degraded when the latest one failed.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	stats := h.registry.FetchStats()

	switch {
	case stats.Failures > 0 && stats.Successes == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case stats.Failures > 0 && stats.LastFailure.After(stats.LastSuccess):
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"sessions":       h.registry.Len(),
		"sessions_by":    h.registry.CountByStatus(),
		"fetch_success":  stats.Successes,
		"fetch_failures": stats.Failures,
		"uptime_hours":   math.Round(h.now().Sub(h.startTime).Hours()*10) / 10,
	}
	if !stats.LastSuccess.IsZero() {
		data["last_success"] = stats.LastSuccess.UTC().Format(time.RFC3339)
	}
	if !stats.LastFailure.IsZero() {
		data["last_failure"] = stats.LastFailure.UTC().Format(time.RFC3339)
		data["last_error"] = stats.LastError
	}

	return status, data, httpStatus
}
