package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/1Sidetechnology/webinaire-backend/internal/middleware"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
)

// RegisterRequest is the body for POST /api/registrations.
type RegisterRequest struct {
	WebinarID string `json:"webinar_id" binding:"required,uuid"`
	Email     string `json:"email" binding:"required,email"`
	Name      string `json:"name" binding:"required"`
	Company   string `json:"company"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles POST /api/registrations (public).
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	webinarID, err := uuid.Parse(req.WebinarID)
	if err != nil {
		response.BadRequest(c, "invalid webinar_id")
		return
	}
	result, err := h.svc.Create(c.Request.Context(), CreateInput{
		WebinarID: webinarID,
		Email:     req.Email,
		Name:      req.Name,
		Company:   req.Company,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetByID handles GET /api/registrations/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	userID, isAdmin := requester(c)
	d, err := h.svc.GetByID(c.Request.Context(), id, userID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// ListMine handles GET /api/my/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := requester(c)
	list, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListByWebinar handles GET /api/webinars/:id/registrations (admin only).
func (h *Handler) ListByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.svc.ListByWebinar(c.Request.Context(), webinarID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Cancel handles DELETE /api/registrations/:id.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	userID, isAdmin := requester(c)
	if err := h.svc.Cancel(c.Request.Context(), id, userID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}
	response.OKMessage(c, nil, "registration cancelled")
}

func requester(c *gin.Context) (uuid.UUID, bool) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	roleStr, _ := role.(string)
	return userID, roleStr == string(models.RoleAdmin)
}
