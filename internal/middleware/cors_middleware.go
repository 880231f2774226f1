package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS restricts browser callers to the configured origins. Preflight
// requests are answered here and never reach a handler.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	resolve := originResolver(allowedOrigins)

	return func(c *gin.Context) {
		if granted, echoed := resolve(c.GetHeader("Origin")); granted != "" {
			c.Header("Access-Control-Allow-Origin", granted)
			if echoed {
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// originResolver builds a lookup over the configured origins. It returns
// the Allow-Origin value to send, or empty when the origin is not granted,
// plus whether the origin was echoed back and the response must vary on it.
// A "*" entry grants every origin without echoing.
func originResolver(allowedOrigins []string) func(origin string) (string, bool) {
	allowAny := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAny = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		if allowAny {
			return "*", false
		}
		if _, ok := allowed[origin]; ok {
			return origin, true
		}
		return "", false
	}
}
