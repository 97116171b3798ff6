// Package endpoint provides the operational HTTP handlers: health, liveness,
// readiness and build info.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ssecast/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health reports overall service health with per-component detail. Any
// unhealthy component makes the service unhealthy (503); degraded ones only
// degrade it.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, components := aggregate(c.Request.Context(), checker)

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

func aggregate(ctx context.Context, checker HealthChecker) (component.HealthStatus, []component.Health) {
	status := component.StatusHealthy
	if checker == nil {
		return status, []component.Health{}
	}
	components := checker(ctx)
	for _, ch := range components {
		switch ch.Status {
		case component.StatusUnhealthy:
			status = component.StatusUnhealthy
		case component.StatusDegraded:
			if status != component.StatusUnhealthy {
				status = component.StatusDegraded
			}
		}
	}
	return status, components
}
