package middleware

import (
	"strconv"
	"time"

	"github.com/docflow/review-service/metrics"
	"github.com/gin-gonic/gin"
)

// Prometheus records request count and latency per route.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method + " " + c.FullPath()
		metrics.RecordRequest(method, status, time.Since(start))
	}
}
