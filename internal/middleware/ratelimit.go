package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/macrofit/macrofit-backend/internal/requestdata"
	"github.com/macrofit/macrofit-backend/internal/services"
)

// RateLimit guards the completion-backed routes. Keyed by authenticated user,
// falling back to client IP. A nil limiter allows everything.
func RateLimit(limiter *services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := requestdata.UserID(c.Request.Context()); userID != uuid.Nil {
			key = userID.String()
		}
		if !limiter.Allow(c.Request.Context(), key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
