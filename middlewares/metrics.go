package middlewares

import (
	"strconv"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware -> label route memakai pola gin (FullPath), bukan URL mentah
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
