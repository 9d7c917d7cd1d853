package users

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/middleware"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
	"github.com/1Sidetechnology/webinaire-backend/pkg/utils"
)

// Handler handles account endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a user handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ChangePasswordRequest is the body for PUT /api/account/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword lets an admin change their own password. The current
// password is required once one has been set.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user.Password != "" && !utils.CheckPassword(req.CurrentPassword, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.SetPassword(c.Request.Context(), userID, hash); err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("password changed", zap.String("user_id", userID.String()))
	response.OKMessage(c, nil, "password updated")
}
