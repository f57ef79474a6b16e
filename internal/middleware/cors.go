package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = 12 * time.Hour

var ErrOriginNotAllowed = errors.New("origin not allowed")

var (
	corsAllowMethods = []string{http.MethodPost, http.MethodOptions}
	corsAllowHeaders = []string{"Origin", "Content-Type", "Accept"}
)

// CORS rejects requests whose declared Origin is not in allowed with 403 and decorates
// every other response with CORS headers. Preflight requests are answered directly.
// Requests without an Origin header pass through untouched.
func CORS(allowed []string) gin.HandlerFunc {
	allowMethods := strings.Join(corsAllowMethods, ", ")
	allowHeaders := strings.Join(corsAllowHeaders, ", ")
	maxAge := strconv.Itoa(int(corsMaxAge.Seconds()))
	hasWildcard := slices.Contains(allowed, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !hasWildcard && !slices.Contains(allowed, origin) {
			_ = c.Error(ErrOriginNotAllowed)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Origin not allowed"})
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
