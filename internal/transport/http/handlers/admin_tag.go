package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// TagHandler serves the session-authenticated admin write API for tags,
// the subtag DAG, and tag assignments (§4.3).
type TagHandler struct {
	Tags *usecase.TagUsecase
}

// NewTagHandler constructs a TagHandler.
func NewTagHandler(tags *usecase.TagUsecase) *TagHandler {
	return &TagHandler{Tags: tags}
}

// TagRequest is the body for declaring a tag.
type TagRequest struct {
	SystemID       string `json:"system_id" binding:"required"`
	TagID          string `json:"tag_id" binding:"required"`
	SupportsUsers  bool   `json:"supports_users"`
	SupportsGroups bool   `json:"supports_groups"`
	HasContent     bool   `json:"has_content"`
	Description    string `json:"description"`
}

// Create handles POST /api/admin/tags.
func (h *TagHandler) Create(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	tag := domain.Tag{
		SystemID:       req.SystemID,
		TagID:          req.TagID,
		SupportsUsers:  req.SupportsUsers,
		SupportsGroups: req.SupportsGroups,
		HasContent:     req.HasContent,
		Description:    req.Description,
	}
	if err := h.Tags.DeclareTag(c.Request.Context(), tag, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// TagUpdateRequest is the body for updating a tag's description.
type TagUpdateRequest struct {
	Description string `json:"description"`
}

// Update handles PUT /api/admin/tags/{system}/{tag}.
func (h *TagHandler) Update(c *gin.Context) {
	var req TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	err := h.Tags.UpdateTag(c.Request.Context(), c.Param("system"), c.Param("tag"), req.Description, middleware.Actor(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/tags/{system}/{tag}.
func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.Tags.DeleteTag(c.Request.Context(), c.Param("system"), c.Param("tag"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubtagEdgeRequest is the body for declaring a subtag edge.
type SubtagEdgeRequest struct {
	ParentTagID string `json:"parent_tag_id" binding:"required"`
	ChildTagID  string `json:"child_tag_id" binding:"required"`
}

// AddSubtag handles POST /api/admin/tags/{system}/subtags.
func (h *TagHandler) AddSubtag(c *gin.Context) {
	var req SubtagEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	systemID := c.Param("system")
	edge := domain.SubtagEdge{
		Parent: domain.TagRef{SystemID: systemID, TagID: req.ParentTagID},
		Child:  domain.TagRef{SystemID: systemID, TagID: req.ChildTagID},
	}
	if err := h.Tags.AddSubtagEdge(c.Request.Context(), edge, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// RemoveSubtag handles DELETE /api/admin/tags/{system}/subtags/{parent}/{child}.
func (h *TagHandler) RemoveSubtag(c *gin.Context) {
	systemID := c.Param("system")
	parent := domain.TagRef{SystemID: systemID, TagID: c.Param("parent")}
	child := domain.TagRef{SystemID: systemID, TagID: c.Param("child")}

	if err := h.Tags.RemoveSubtagEdge(c.Request.Context(), parent, child, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// TagAssignmentRequest is the body for attaching a tag to a user or a
// group. Exactly one of Username or GroupDomain+GroupID must be set.
type TagAssignmentRequest struct {
	Content     *string `json:"content"`
	Username    string  `json:"username"`
	GroupDomain string  `json:"group_domain"`
	GroupID     string  `json:"group_id"`
}

// Assign handles POST /api/admin/tags/{system}/{tag}/assignments.
func (h *TagHandler) Assign(c *gin.Context) {
	var req TagAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	ref := domain.TagRef{SystemID: c.Param("system"), TagID: c.Param("tag")}
	actor := middleware.Actor(c)

	var (
		id  string
		err error
	)
	switch {
	case req.Username != "":
		id, err = h.Tags.AssignToUser(c.Request.Context(), ref, req.Username, req.Content, actor)
	case req.GroupDomain != "" && req.GroupID != "":
		groupRef := domain.GroupRef{Domain: req.GroupDomain, ID: req.GroupID}
		id, err = h.Tags.AssignToGroup(c.Request.Context(), ref, groupRef, req.Content, actor)
	default:
		RespondError(c, usecase.ErrValidation("bearer", "either username or group must be set"))
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AssignmentResponse{ID: id})
}

// Revoke handles DELETE /api/admin/assignments/tags/{id}.
func (h *TagHandler) Revoke(c *gin.Context) {
	if err := h.Tags.RevokeAssignment(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
