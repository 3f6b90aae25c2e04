package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// GroupHandler serves the session-authenticated admin write API for
// groups, subgroup edges, and direct memberships (§4.1).
type GroupHandler struct {
	Groups *usecase.GroupUsecase
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *usecase.GroupUsecase) *GroupHandler {
	return &GroupHandler{Groups: groups}
}

// GroupRequest is the body for creating or updating a group.
type GroupRequest struct {
	ID            string `json:"id" binding:"required"`
	Domain        string `json:"domain" binding:"required"`
	NameSV        string `json:"name_sv"`
	NameEN        string `json:"name_en"`
	DescriptionSV string `json:"description_sv"`
	DescriptionEN string `json:"description_en"`
}

func (r GroupRequest) toDomain() domain.Group {
	return domain.Group{
		ID:            r.ID,
		Domain:        r.Domain,
		NameSV:        r.NameSV,
		NameEN:        r.NameEN,
		DescriptionSV: r.DescriptionSV,
		DescriptionEN: r.DescriptionEN,
	}
}

// Create handles POST /api/admin/groups.
func (h *GroupHandler) Create(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	if err := h.Groups.CreateGroup(c.Request.Context(), req.toDomain(), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Update handles PUT /api/admin/groups/{domain}/{id}.
func (h *GroupHandler) Update(c *gin.Context) {
	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}
	req.Domain = c.Param("dom")
	req.ID = c.Param("id")

	if err := h.Groups.UpdateGroup(c.Request.Context(), req.toDomain(), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/groups/{domain}/{id}.
func (h *GroupHandler) Delete(c *gin.Context) {
	ref := domain.GroupRef{Domain: c.Param("dom"), ID: c.Param("id")}

	if err := h.Groups.DeleteGroup(c.Request.Context(), ref, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubgroupEdgeRequest is the body for declaring a subgroup edge.
type SubgroupEdgeRequest struct {
	ParentDomain string `json:"parent_domain" binding:"required"`
	ParentID     string `json:"parent_id" binding:"required"`
	ChildDomain  string `json:"child_domain" binding:"required"`
	ChildID      string `json:"child_id" binding:"required"`
	Manager      bool   `json:"manager"`
}

// AddSubgroup handles POST /api/admin/groups/subgroups.
func (h *GroupHandler) AddSubgroup(c *gin.Context) {
	var req SubgroupEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	edge := domain.SubgroupEdge{
		Parent:  domain.GroupRef{Domain: req.ParentDomain, ID: req.ParentID},
		Child:   domain.GroupRef{Domain: req.ChildDomain, ID: req.ChildID},
		Manager: req.Manager,
	}

	if err := h.Groups.AddSubgroupEdge(c.Request.Context(), edge, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// RemoveSubgroup handles DELETE /api/admin/groups/{pdom}/{pid}/subgroups/{cdom}/{cid}.
func (h *GroupHandler) RemoveSubgroup(c *gin.Context) {
	parent := domain.GroupRef{Domain: c.Param("pdom"), ID: c.Param("pid")}
	child := domain.GroupRef{Domain: c.Param("cdom"), ID: c.Param("cid")}

	if err := h.Groups.RemoveSubgroupEdge(c.Request.Context(), parent, child, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MembershipRequest is the body for creating a direct membership.
type MembershipRequest struct {
	Username string `json:"username" binding:"required"`
	Domain   string `json:"domain" binding:"required"`
	GroupID  string `json:"group_id" binding:"required"`
	From     string `json:"from" binding:"required"`
	Until    string `json:"until" binding:"required"`
	Manager  bool   `json:"manager"`
}

// MembershipResponse carries the id of a created membership.
type MembershipResponse struct {
	ID string `json:"id"`
}

// AddMembership handles POST /api/admin/memberships.
func (h *GroupHandler) AddMembership(c *gin.Context) {
	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		RespondError(c, usecase.ErrValidation("from", "expected YYYY-MM-DD"))
		return
	}
	until, err := parseDate(req.Until)
	if err != nil {
		RespondError(c, usecase.ErrValidation("until", "expected YYYY-MM-DD"))
		return
	}

	m := domain.DirectMembership{
		Username: req.Username,
		Group:    domain.GroupRef{Domain: req.Domain, ID: req.GroupID},
		From:     from,
		Until:    until,
		Manager:  req.Manager,
	}

	id, err := h.Groups.AddDirectMembership(c.Request.Context(), m, middleware.Actor(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MembershipResponse{ID: id})
}

// RemoveMembership handles DELETE /api/admin/memberships/{id}.
func (h *GroupHandler) RemoveMembership(c *gin.Context) {
	id := c.Param("id")

	if err := h.Groups.RemoveDirectMembership(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
