package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
)

// MetricsMiddleware returns a middleware that records HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()

		// If no route matched, use request path
		if path == "" {
			path = c.Request.URL.Path
		}

		// Normalize path for metrics to avoid high cardinality
		path = normalizePath(path)

		metrics.RecordHTTPRequest(c.Request.Method, path, status, duration)
	}
}

// normalizePath keeps unmatched 404 paths from exploding label cardinality;
// matched routes already carry :param placeholders via gin.FullPath()
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/..."
	}
	return path
}
