package apihandlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck checks one backing component.
type HealthCheck func(ctx context.Context) error

// HealthStatus is the GET /health response.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthHandler handles GET /health. Every registered component is checked;
// any failure turns the answer into 503.
func (h *APIHandler) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.Checks))
	healthy := true
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			components[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthStatus{Status: status, Components: components})
}

// ReadyHandler handles GET /ready: ready once the model artifacts are loaded.
func (h *APIHandler) ReadyHandler(c *gin.Context) {
	if !h.Predictions.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
