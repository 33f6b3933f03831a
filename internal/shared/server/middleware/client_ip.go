package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// UnknownClient is the shared bucket for requests with no usable address
// headers. All unidentified clients spend one rate-limit budget.
const UnknownClient = "unknown"

// ClientIdentifier derives the rate-limit identifier for a request.
// The first hop of X-Forwarded-For wins, then the proxy's X-Real-IP.
func ClientIdentifier(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
