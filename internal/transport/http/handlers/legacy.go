package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/usecase"
)

// LegacyHandler serves the deprecated, unauthenticated v0 API (§6): the
// same resolver semantics as the v1 API, encoded as plain strings
// ("perm_id" or "perm_id:scope") instead of JSON objects. Rate-limited
// at the route level rather than gated by a bearer secret.
type LegacyHandler struct {
	Queries *usecase.QueryService
	Gate    *usecase.AuthGate
}

// NewLegacyHandler constructs a LegacyHandler.
func NewLegacyHandler(queries *usecase.QueryService, gate *usecase.AuthGate) *LegacyHandler {
	return &LegacyHandler{Queries: queries, Gate: gate}
}

// UserAllSystems handles GET /user/{u}.
func (h *LegacyHandler) UserAllSystems(c *gin.Context) {
	username := c.Param("u")

	out, err := h.Queries.LegacyPermStringsAllSystems(c.Request.Context(), domain.UserPrincipal(username))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// UserSystem handles GET /user/{u}/{sys}.
func (h *LegacyHandler) UserSystem(c *gin.Context) {
	username := c.Param("u")
	systemID := c.Param("sys")

	out, err := h.Queries.LegacyPermStrings(c.Request.Context(), domain.UserPrincipal(username), systemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// UserSystemPerm handles GET /user/{u}/{sys}/{perm_key}.
func (h *LegacyHandler) UserSystemPerm(c *gin.Context) {
	username := c.Param("u")
	systemID := c.Param("sys")
	permKey := c.Param("perm_key")

	ok, err := h.Queries.LegacyHasPermKey(c.Request.Context(), domain.UserPrincipal(username), systemID, permKey)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ok)
}

// TokenAllSystems handles GET /token/{sec}.
func (h *LegacyHandler) TokenAllSystems(c *gin.Context) {
	principal, ok := h.resolveTokenPrincipal(c)
	if !ok {
		return
	}

	out, err := h.Queries.LegacyPermStringsAllSystems(c.Request.Context(), principal)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// TokenSystem handles GET /token/{sec}/{sys}.
func (h *LegacyHandler) TokenSystem(c *gin.Context) {
	principal, ok := h.resolveTokenPrincipal(c)
	if !ok {
		return
	}

	systemID := c.Param("sys")
	out, err := h.Queries.LegacyPermStrings(c.Request.Context(), principal, systemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// TokenSystemPerm handles GET /token/{sec}/{sys}/{perm_key}.
func (h *LegacyHandler) TokenSystemPerm(c *gin.Context) {
	principal, ok := h.resolveTokenPrincipal(c)
	if !ok {
		return
	}

	systemID := c.Param("sys")
	permKey := c.Param("perm_key")
	ok2, err := h.Queries.LegacyHasPermKey(c.Request.Context(), principal, systemID, permKey)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ok2)
}

func (h *LegacyHandler) resolveTokenPrincipal(c *gin.Context) (domain.Principal, bool) {
	token, err := h.Gate.Authenticate(c.Request.Context(), c.Param("sec"))
	if err != nil {
		RespondError(c, err)
		return domain.Principal{}, false
	}
	return domain.TokenPrincipal(token.ID), true
}
