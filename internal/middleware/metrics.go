package middleware

import (
	"time"

	"barbershop_backend/internal/platform/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records every request against its route template, so /api/user/:id
// is one series no matter how many ids are requested.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
