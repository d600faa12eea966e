package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// HealthCheck pings one dependency
type HealthCheck struct {
	Name string
	// Required checks gate readiness; optional ones only add warnings
	Required bool
	Check    func(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *logger.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 3 * time.Second,
		logger:  logger.WithComponent("health-handler"),
	}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Readiness runs every check in parallel. Only required checks decide the
// status code.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make([]error, len(h.checks))
	var wg sync.WaitGroup
	for i, check := range h.checks {
		wg.Add(1)
		go func(i int, check HealthCheck) {
			defer wg.Done()
			results[i] = check.Check(ctx)
		}(i, check)
	}
	wg.Wait()

	ready := true
	checks := make(map[string]interface{}, len(h.checks))
	var warnings []string
	for i, check := range h.checks {
		entry := map[string]interface{}{
			"healthy":  results[i] == nil,
			"required": check.Required,
		}
		if err := results[i]; err != nil {
			entry["error"] = err.Error()
			if check.Required {
				ready = false
				h.logger.Warn("Required dependency unhealthy", "check", check.Name, "error", err)
			} else {
				warnings = append(warnings, check.Name+" unavailable")
			}
		}
		checks[check.Name] = entry
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status": status,
		"checks": checks,
	}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}

	c.JSON(code, body)
}

// Liveness checks if the service is alive
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
