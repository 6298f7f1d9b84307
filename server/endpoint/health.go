// Package endpoint holds the operational HTTP handlers: health and
// probe endpoints for orchestrators, and build/runtime introspection
// for humans.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/vbdiar/component"
)

// HealthChecker reports the health of every registered component; the
// registry's HealthAll satisfies it.
type HealthChecker func(ctx context.Context) []component.Health

// aggregate folds component reports into one service-level status:
// any unhealthy component wins, then degraded, then healthy.
func aggregate(reports []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, r := range reports {
		switch r.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

// Health reports the service status with a per-component breakdown.
// An unhealthy component turns the response into a 503 so load
// balancers stop routing here.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reports []component.Health
		if checker != nil {
			reports = checker(c.Request.Context())
		}
		status := aggregate(reports)

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": reports,
		})
	}
}
