package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// SystemHandler serves the session-authenticated admin write API for the
// system registry (§3).
type SystemHandler struct {
	Systems *usecase.SystemUsecase
}

// NewSystemHandler constructs a SystemHandler.
func NewSystemHandler(systems *usecase.SystemUsecase) *SystemHandler {
	return &SystemHandler{Systems: systems}
}

// SystemRequest is the body for registering or updating a system.
type SystemRequest struct {
	ID          string `json:"id" binding:"required"`
	Description string `json:"description"`
}

// Create handles POST /api/admin/systems.
func (h *SystemHandler) Create(c *gin.Context) {
	var req SystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	system := domain.System{ID: req.ID, Description: req.Description}
	if err := h.Systems.CreateSystem(c.Request.Context(), system, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Update handles PUT /api/admin/systems/{id}.
func (h *SystemHandler) Update(c *gin.Context) {
	var req SystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	system := domain.System{ID: c.Param("id"), Description: req.Description}
	if err := h.Systems.UpdateSystem(c.Request.Context(), system, middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/systems/{id}.
func (h *SystemHandler) Delete(c *gin.Context) {
	if err := h.Systems.DeleteSystem(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
