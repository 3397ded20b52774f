package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"intake-backend/internal/shared/server/respond"
)

// AdminAuth gates the review console behind the configured access code. The
// code is presented in the X-Admin-Access header (or as a Bearer token) and is
// verified against a bcrypt hash when one is configured, otherwise against the
// plaintext code in constant time. With neither configured, access is denied.
func AdminAuth(accessHash, accessCode string) gin.HandlerFunc {
	accessHash = strings.TrimSpace(accessHash)
	accessCode = strings.TrimSpace(accessCode)

	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader("X-Admin-Access"))
		if presented == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(authHeader, "Bearer ") {
				presented = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			}
		}
		if presented == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing access code", nil)
			return
		}

		switch {
		case accessHash != "":
			if bcrypt.CompareHashAndPassword([]byte(accessHash), []byte(presented)) != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid access code", nil)
				return
			}
		case accessCode != "":
			if subtle.ConstantTimeCompare([]byte(accessCode), []byte(presented)) != 1 {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid access code", nil)
				return
			}
		default:
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "review console is not configured", nil)
			return
		}

		c.Next()
	}
}
