package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// PermissionEntry is one row of the /user/{u}/permissions listing.
type PermissionEntry struct {
	ID    string  `json:"id"`
	Scope *string `json:"scope"`
}

// TaggedGroupEntry is one row of the /tagged/{t}/groups and
// /tagged/{t}/memberships/{u} listings.
type TaggedGroupEntry struct {
	GroupName   string  `json:"group_name"`
	GroupID     string  `json:"group_id"`
	GroupDomain string  `json:"group_domain"`
	TagContent  *string `json:"tag_content"`
}

// TaggedUserEntry is one row of the /tagged/{t}/users listing.
type TaggedUserEntry struct {
	Username   string  `json:"username"`
	TagContent *string `json:"tag_content"`
}

// QueryHandler serves the bearer-authenticated v1 read API (§6).
type QueryHandler struct {
	Queries *usecase.QueryService
}

// NewQueryHandler constructs a QueryHandler.
func NewQueryHandler(queries *usecase.QueryService) *QueryHandler {
	return &QueryHandler{Queries: queries}
}

// userSubject resolves the /user/{u}/... path family's subject.
func userSubject(c *gin.Context) domain.Principal {
	return domain.UserPrincipal(c.Param("u"))
}

// tokenSubject resolves the /token/{sec}/... mirror family's subject:
// the bearer secret itself authenticates as the token it names, and the
// mirror queries that same token's own standing (§6).
func tokenSubject(c *gin.Context) domain.Principal {
	p, _ := middleware.Principal(c)
	return p
}

// Permissions handles GET /user/{u}/permissions.
func (h *QueryHandler) Permissions(c *gin.Context) { h.permissions(c, userSubject(c)) }

// PermissionsToken handles GET /token/{sec}/permissions.
func (h *QueryHandler) PermissionsToken(c *gin.Context) { h.permissions(c, tokenSubject(c)) }

func (h *QueryHandler) permissions(c *gin.Context, who domain.Principal) {
	systemID, _ := middleware.SystemID(c)

	perms, err := h.Queries.PermissionsOf(c.Request.Context(), who, systemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	out := make([]PermissionEntry, 0, len(perms))
	for _, p := range perms {
		out = append(out, PermissionEntry{ID: p.PermID, Scope: p.Scope})
	}

	c.JSON(http.StatusOK, out)
}

// Permission handles GET /user/{u}/permission/{p}.
func (h *QueryHandler) Permission(c *gin.Context) { h.permission(c, userSubject(c)) }

// PermissionToken handles GET /token/{sec}/permission/{p}.
func (h *QueryHandler) PermissionToken(c *gin.Context) { h.permission(c, tokenSubject(c)) }

func (h *QueryHandler) permission(c *gin.Context, who domain.Principal) {
	systemID, _ := middleware.SystemID(c)
	permID := c.Param("p")

	ok, err := h.Queries.HasPermission(c.Request.Context(), who, systemID, permID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ok)
}

// PermissionScopes handles GET /user/{u}/permission/{p}/scopes.
func (h *QueryHandler) PermissionScopes(c *gin.Context) { h.permissionScopes(c, userSubject(c)) }

// PermissionScopesToken handles GET /token/{sec}/permission/{p}/scopes.
func (h *QueryHandler) PermissionScopesToken(c *gin.Context) {
	h.permissionScopes(c, tokenSubject(c))
}

func (h *QueryHandler) permissionScopes(c *gin.Context, who domain.Principal) {
	systemID, _ := middleware.SystemID(c)
	permID := c.Param("p")

	scopes, err := h.Queries.PermissionScopes(c.Request.Context(), who, systemID, permID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scopes)
}

// PermissionScope handles GET /user/{u}/permission/{p}/scope/{s}.
func (h *QueryHandler) PermissionScope(c *gin.Context) { h.permissionScope(c, userSubject(c)) }

// PermissionScopeToken handles GET /token/{sec}/permission/{p}/scope/{s}.
func (h *QueryHandler) PermissionScopeToken(c *gin.Context) { h.permissionScope(c, tokenSubject(c)) }

func (h *QueryHandler) permissionScope(c *gin.Context, who domain.Principal) {
	systemID, _ := middleware.SystemID(c)
	permID := c.Param("p")
	scope := c.Param("s")

	ok, err := h.Queries.HasPermissionScope(c.Request.Context(), who, systemID, permID, scope)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ok)
}

// TaggedGroups handles GET /tagged/{t}/groups?lang=.
func (h *QueryHandler) TaggedGroups(c *gin.Context) {
	systemID, _ := middleware.SystemID(c)
	tagID := c.Param("t")

	lang, ok := domain.ParseLanguage(c.Query("lang"))
	if !ok {
		RespondError(c, usecase.ErrValidation("lang", "unknown language, expected sv or en"))
		return
	}

	groups, err := h.Queries.TaggedGroups(c.Request.Context(), systemID, tagID, lang)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaggedGroupEntries(groups))
}

// TaggedMemberships handles GET /tagged/{t}/memberships/{u}?lang=.
func (h *QueryHandler) TaggedMemberships(c *gin.Context) {
	systemID, _ := middleware.SystemID(c)
	tagID := c.Param("t")
	username := c.Param("u")

	lang, ok := domain.ParseLanguage(c.Query("lang"))
	if !ok {
		RespondError(c, usecase.ErrValidation("lang", "unknown language, expected sv or en"))
		return
	}

	groups, err := h.Queries.TaggedMemberships(c.Request.Context(), systemID, tagID, username, lang)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTaggedGroupEntries(groups))
}

// TaggedUsers handles GET /tagged/{t}/users.
func (h *QueryHandler) TaggedUsers(c *gin.Context) {
	systemID, _ := middleware.SystemID(c)
	tagID := c.Param("t")

	users, err := h.Queries.TaggedUsers(c.Request.Context(), systemID, tagID)
	if err != nil {
		RespondError(c, err)
		return
	}

	out := make([]TaggedUserEntry, 0, len(users))
	for _, u := range users {
		out = append(out, TaggedUserEntry{Username: u.Username, TagContent: u.TagContent})
	}

	c.JSON(http.StatusOK, out)
}

// GroupMembers handles GET /group/{dom}/{id}/members.
func (h *QueryHandler) GroupMembers(c *gin.Context) {
	systemID, _ := middleware.SystemID(c)
	ref := domain.GroupRef{Domain: c.Param("dom"), ID: c.Param("id")}

	usernames, err := h.Queries.GroupMembers(c.Request.Context(), ref, systemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, usernames)
}

func toTaggedGroupEntries(groups []usecase.TaggedGroup) []TaggedGroupEntry {
	out := make([]TaggedGroupEntry, 0, len(groups))
	for _, g := range groups {
		out = append(out, TaggedGroupEntry{
			GroupName:   g.GroupName,
			GroupID:     g.GroupID,
			GroupDomain: g.GroupDomain,
			TagContent:  g.TagContent,
		})
	}
	return out
}
