package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/redditharbor/harbor-api/internal/dto"
	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
	"github.com/redditharbor/harbor-api/pkg/response"
)

type registrar interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
}

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	users registrar
}

// NewAuthHandler constructs handler.
func NewAuthHandler(users registrar) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register godoc
// @Summary Register a user account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
