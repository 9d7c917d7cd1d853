package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
	"github.com/1Sidetechnology/webinaire-backend/pkg/utils"
)

// UserStore is the slice of the user repository auth needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) error
}

// RegisterRequest is the body for POST /auth/register. Attendee accounts are
// passwordless; identity is asserted by the email alone.
type RegisterRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Name    string `json:"name" binding:"required"`
	Company string `json:"company"`
}

// LoginRequest is the body for POST /auth/login. Password is required only
// for admin accounts.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Finds or creates the attendee and
// returns a token.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user := &models.User{Email: req.Email, Name: req.Name, Company: req.Company, Role: models.RoleAttendee}
	if err := h.users.Upsert(c.Request.Context(), user); err != nil {
		h.logger.Error("upsert user failed", zap.Error(err), zap.String("email", req.Email))
		response.Error(c, err)
		return
	}
	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login. Attendees log in with their email alone;
// admin accounts must present their password.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		response.Error(c, err)
		return
	}
	if user.Role == models.RoleAdmin {
		if req.Password == "" || !utils.CheckPassword(req.Password, user.Password) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
	}
	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
