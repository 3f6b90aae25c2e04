package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// TokenHandler serves the session-authenticated admin write API for API
// tokens (§4.4). CreateToken is the only response that ever carries a
// raw bearer secret.
type TokenHandler struct {
	Tokens *usecase.TokenUsecase
}

// NewTokenHandler constructs a TokenHandler.
func NewTokenHandler(tokens *usecase.TokenUsecase) *TokenHandler {
	return &TokenHandler{Tokens: tokens}
}

// TokenCreateRequest is the body for minting an API token.
type TokenCreateRequest struct {
	SystemID    string     `json:"system_id" binding:"required"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// TokenCreateResponse carries the raw bearer secret, shown exactly once.
type TokenCreateResponse struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// Create handles POST /api/admin/tokens.
func (h *TokenHandler) Create(c *gin.Context) {
	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	token, secret, err := h.Tokens.CreateToken(c.Request.Context(), req.SystemID, req.Description, req.ExpiresAt, middleware.Actor(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenCreateResponse{ID: token.ID, Secret: secret.String()})
}

// TokenUpdateRequest is the body for updating a token's description or expiry.
type TokenUpdateRequest struct {
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Update handles PUT /api/admin/tokens/{id}.
func (h *TokenHandler) Update(c *gin.Context) {
	var req TokenUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, usecase.ErrValidation("body", err.Error()))
		return
	}

	err := h.Tokens.UpdateToken(c.Request.Context(), c.Param("id"), req.Description, req.ExpiresAt, middleware.Actor(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/tokens/{id}.
func (h *TokenHandler) Delete(c *gin.Context) {
	if err := h.Tokens.DeleteToken(c.Request.Context(), c.Param("id"), middleware.Actor(c)); err != nil {
		RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
