package middleware

import (
	"bitwise74/share-api/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewCronSecretMiddleware guards job endpoints with a shared secret sent as
// x-cron-secret or as a bearer token. An unset secret locks the endpoints
func NewCronSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !security.SecretMatches(c.GetHeader("x-cron-secret"), secret) &&
			!security.SecretMatches(bearerToken(c), secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized.",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
