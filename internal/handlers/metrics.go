package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/macrofit/macrofit-backend/internal/observability"
)

// Metrics serves the Prometheus exposition for the process.
func Metrics(c *gin.Context) {
	m := observability.Current()
	if m == nil {
		c.String(http.StatusNotFound, "metrics disabled")
		return
	}
	c.Header("Content-Type", "text/plain; version=0.0.4")
	if err := m.WritePrometheus(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
