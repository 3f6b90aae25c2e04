package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/usecase"
)

const (
	// PrincipalKey is the context key for the authenticated principal.
	PrincipalKey = "principal"
	// SystemIDKey is the context key for the relevant system (§6's
	// GLOSSARY) — the system that issued the bearer token.
	SystemIDKey = "system_id"
)

// RequireBearer validates the Authorization header's bearer secret
// against permID in the caller's own system (§4.4) and stores the
// resolved principal and system id in the gin context for handlers to
// read back with Principal/SystemID.
func RequireBearer(gate *usecase.AuthGate, permID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			RespondBearerError(c, usecase.ErrAPIKeyUnknown())
			return
		}

		secret := strings.TrimSpace(parts[1])
		if secret == "" {
			RespondBearerError(c, usecase.ErrAPIKeyUnknown())
			return
		}

		authorized, err := gate.Require(c.Request.Context(), secret, permID)
		if err != nil {
			RespondBearerError(c, err)
			return
		}

		c.Set(PrincipalKey, authorized.Principal)
		c.Set(SystemIDKey, authorized.SystemID)

		c.Next()
	}
}

// RequireBearerFromPath is RequireBearer's mirror for the /token/{sec}/...
// routes (§6): the secret travels as a path parameter instead of an
// Authorization header, but otherwise goes through the same gate.
func RequireBearerFromPath(gate *usecase.AuthGate, permID, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.Param(param)
		if secret == "" {
			RespondBearerError(c, usecase.ErrAPIKeyUnknown())
			return
		}

		authorized, err := gate.Require(c.Request.Context(), secret, permID)
		if err != nil {
			RespondBearerError(c, err)
			return
		}

		c.Set(PrincipalKey, authorized.Principal)
		c.Set(SystemIDKey, authorized.SystemID)

		c.Next()
	}
}

// Principal retrieves the principal resolved by RequireBearer.
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// SystemID retrieves the relevant system resolved by RequireBearer.
func SystemID(c *gin.Context) (string, bool) {
	v, ok := c.Get(SystemIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// RespondBearerError writes the standard error envelope for an auth
// failure. Defined here (rather than in the handlers package) so the
// middleware doesn't need to import it back.
func RespondBearerError(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	key := usecase.ErrKeyAPIKeyUnknown

	if uerr, ok := err.(*usecase.Error); ok {
		key = uerr.Key
		if key == usecase.ErrKeyForbidden {
			status = http.StatusForbidden
		}
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": true,
		"info":  gin.H{"key": key},
	})
}
