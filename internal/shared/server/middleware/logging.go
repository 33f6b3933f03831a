package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blanknote-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		resultID, _ := c.Get("resultId")
		funnelPhase := ""
		if raw, ok := c.Get("funnelPhase"); ok {
			if s, ok := raw.(string); ok {
				funnelPhase = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":   reqID,
			"method":       c.Request.Method,
			"path":         c.Request.URL.Path,
			"status":       status,
			"funnel_phase": funnelPhase,
			"duration_ms":  float64(latency.Microseconds()) / 1000.0,
			"result_id":    resultID,
			"client_ip":    ClientIdentifier(c),
			"user_agent":   c.Request.UserAgent(),
		})
	}
}
