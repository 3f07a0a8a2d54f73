package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Auth enforces a static bearer token when one is configured. With an empty
// token the middleware is a pass-through, which is the default for local use.
func Auth(apiToken string) gin.HandlerFunc {
	token := strings.TrimSpace(apiToken)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Next()
	}
}
