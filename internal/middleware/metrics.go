package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/pkg/telemetry"
)

// Metrics records request count and latency per route
func Metrics() gin.HandlerFunc {
	requests, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "http.server.requests",
		Description: "Total HTTP requests",
		Unit:        "{request}",
	})
	duration, _ := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "http.server.duration",
		Description: "HTTP request duration",
		Unit:        "ms",
	})

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		if requests != nil {
			requests.Inc(c.Request.Context(),
				telemetry.MethodAttr(c.Request.Method),
				telemetry.PathAttr(path),
				telemetry.StatusCodeAttr(c.Writer.Status()),
			)
		}
		if duration != nil {
			duration.Record(c.Request.Context(), elapsed,
				telemetry.MethodAttr(c.Request.Method),
				telemetry.PathAttr(path),
				telemetry.StatusCodeAttr(c.Writer.Status()),
			)
		}
	}
}
