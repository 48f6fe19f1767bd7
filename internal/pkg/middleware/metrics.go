package middleware

import (
	"strconv"
	"time"

	"linka/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware 记录 HTTP 请求指标
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.Default.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.Default.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}
