package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/macrofit/macrofit-backend/internal/observability"
)

// Metrics records request counts and latency per method/route/status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := observability.Current()
		if m == nil {
			c.Next()
			return
		}
		m.IncInflight()
		start := time.Now()
		c.Next()
		m.DecInflight()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPIRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
