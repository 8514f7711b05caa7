package middleware

import (
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/melodiemacher/internal/pkg/auth"
)

// CronSecretHeader carries the shared secret of scheduled jobs.
const CronSecretHeader = "x-cron-secret"

// CronSecret admits scheduler calls presenting the configured secret. With no
// secret configured every call is rejected.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pkgAuth.SecretMatches(secret, c.GetHeader(CronSecretHeader)) {
			Unauthorized(c)
			return
		}
		c.Next()
	}
}
