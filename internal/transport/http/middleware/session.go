package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/auth"
)

// ActorKey is the context key for the authenticated admin actor's
// username, set by RequireSession.
const ActorKey = "actor"

// sessionCookieName is the cookie the OIDC login guard is expected to
// issue for the admin write API (C.3).
const sessionCookieName = "hive_session"

// RequireSession authenticates an admin write-API request through an
// external auth.SessionGuard and stores the actor's username in the gin
// context for handlers to read back with Actor.
func RequireSession(guard auth.SessionGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": true,
				"info":  gin.H{"key": "session.missing"},
			})
			return
		}

		session, err := guard.Authenticate(c.Request.Context(), cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": true,
				"info":  gin.H{"key": "session.invalid"},
			})
			return
		}

		c.Set(ActorKey, session.Username)
		c.Next()
	}
}

// Actor retrieves the admin username resolved by RequireSession.
func Actor(c *gin.Context) string {
	v, ok := c.Get(ActorKey)
	if !ok {
		return ""
	}
	username, _ := v.(string)
	return username
}
