package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// PermissionHandler serves the session-authenticated admin write API for
// permission declarations and assignments (§4.2).
type PermissionHandler struct {
	Permissions *usecase.PermissionUsecase
}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler(permissions *usecase.PermissionUsecase) *PermissionHandler {
	return &PermissionHandler{Permissions: permissions}
}

// PermissionRequest is the body for declaring or updating a permission.
type PermissionRequest struct {
	SystemID    string `json:"system_id" binding:"required"`
	PermID      string `json:"perm_id" binding:"required"`
	HasScope    bool   `json:"has_scope"`
	Description string `json:"description"`
}

// Create handles POST /api/admin/permissions.
func (h *PermissionHandler) Create(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	perm := domain.Permission{SystemID: req.SystemID, PermID: req.PermID, HasScope: req.HasScope, Description: req.Description}
	if err := h.Permissions.DeclarePermission(c.Request.Context(), perm, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Update handles PUT /api/admin/permissions/{system}/{perm}.
func (h *PermissionHandler) Update(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	perm := domain.Permission{
		SystemID:    c.Param("system"),
		PermID:      c.Param("perm"),
		HasScope:    req.HasScope,
		Description: req.Description,
	}
	if err := h.Permissions.UpdatePermission(c.Request.Context(), perm, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/permissions/{system}/{perm}.
func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.Permissions.DeletePermission(c.Request.Context(), c.Param("system"), c.Param("perm"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignmentRequest is the body for granting a permission to a group or
// an API token. Exactly one of GroupDomain+GroupID or APITokenID must be
// set.
type AssignmentRequest struct {
	Scope       *string `json:"scope"`
	GroupDomain string  `json:"group_domain"`
	GroupID     string  `json:"group_id"`
	APITokenID  string  `json:"api_token_id"`
}

// AssignmentResponse carries the id of a created assignment.
type AssignmentResponse struct {
	ID string `json:"id"`
}

// Assign handles POST /api/admin/permissions/{system}/{perm}/assignments.
func (h *PermissionHandler) Assign(c *gin.Context) {
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	systemID, permID := c.Param("system"), c.Param("perm")
	actor := middleware.Actor(c)

	var (
		id  string
		err error
	)
	switch {
	case req.APITokenID != "":
		id, err = h.Permissions.AssignToAPIToken(c.Request.Context(), systemID, permID, req.APITokenID, req.Scope, actor)
	case req.GroupDomain != "" && req.GroupID != "":
		ref := domain.GroupRef{Domain: req.GroupDomain, ID: req.GroupID}
		id, err = h.Permissions.AssignToGroup(c.Request.Context(), systemID, permID, ref, req.Scope, actor)
	default:
		RespondError(c, usecase.ErrValidation("bearer", "either group or api_token_id must be set"))
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AssignmentResponse{ID: id})
}

// Revoke handles DELETE /api/admin/assignments/permissions/{id}.
func (h *PermissionHandler) Revoke(c *gin.Context) {
	if err := h.Permissions.RevokeAssignment(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
