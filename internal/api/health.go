package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
//
// Readiness runs every registered check; Postgres is required, Redis only
// degrades price caching, so a failing optional check is reported without
// failing the probe.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
	timeout  time.Duration
}

// NewHealthHandler creates a HealthHandler. Either map may be nil.
func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{required: required, optional: optional, timeout: 2 * time.Second}
}

// Register mounts /healthz and /readyz on r.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness probe
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness probe
	// @Description  Reports the state of every dependency; 503 when a required one is down
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]any
	// @Failure      503  {object}  map[string]any
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		deps := make(map[string]string, len(h.required)+len(h.optional))
		status, code := "ready", http.StatusOK
		for name, check := range h.required {
			if err := check(ctx); err != nil {
				deps[name] = "down"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			deps[name] = "up"
		}
		for name, check := range h.optional {
			deps[name] = "up"
			if err := check(ctx); err != nil {
				deps[name] = "down"
			}
		}
		c.JSON(code, gin.H{"status": status, "dependencies": deps})
	})
}
