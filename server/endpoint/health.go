package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/version"
)

// HealthFunc reports the health of every registered component.
type HealthFunc func(ctx context.Context) []observability.Health

// Health reports the service and every component. A component that is down
// turns the response into a 503.
func Health(service string, health HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []observability.Health
		if health != nil {
			components = health(c.Request.Context())
		}
		report := observability.Report(service, version.Get().Version, components)
		status := http.StatusOK
		if report.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}
