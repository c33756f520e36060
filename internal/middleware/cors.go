package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a middleware that sets CORS headers for cross-origin requests.
// allowedOrigins can be "*" or a comma-separated list (e.g. "http://localhost:3000,https://app.example.com").
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := parseOrigins(allowedOrigins)
	wildcard := len(origins) == 0 || origins["*"]
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		switch {
		case wildcard:
			allowOrigin = "*"
		case origin != "" && origins[origin]:
			allowOrigin = origin
			c.Header("Vary", "Origin")
		}
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func parseOrigins(s string) map[string]bool {
	m := make(map[string]bool)
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			m[o] = true
		}
	}
	return m
}
