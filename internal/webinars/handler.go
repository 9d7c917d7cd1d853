package webinars

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
)

// CancelNotifier is told when a webinar is cancelled so registrants can be
// notified. Optional; nil disables notices.
type CancelNotifier interface {
	NotifyWebinarCancelled(ctx context.Context, w *models.Webinar, reason string)
}

// CreateRequest is the body for POST /api/webinars.
type CreateRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	Price           float64   `json:"price" binding:"gte=0"`
	MaxParticipants int       `json:"max_participants" binding:"gte=0"`
}

// UpdateRequest is the body for PUT /api/webinars/:id. Nil fields keep their
// current value.
type UpdateRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Price           *float64   `json:"price"`
	MaxParticipants *int       `json:"max_participants"`
	Status          *string    `json:"status"`
	CancelReason    string     `json:"cancel_reason"`
}

// Store is the slice of the repository the handler needs.
type Store interface {
	Create(ctx context.Context, w *models.Webinar) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	List(ctx context.Context, f ListFilter) ([]models.Webinar, error)
	Update(ctx context.Context, w *models.Webinar) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*models.WebinarStats, error)
	Summary(ctx context.Context) ([]SummaryRow, error)
}

// Handler handles webinar HTTP endpoints.
type Handler struct {
	repo     Store
	notifier CancelNotifier
}

// NewHandler creates a webinar handler. notifier may be nil.
func NewHandler(repo Store, notifier CancelNotifier) *Handler {
	return &Handler{repo: repo, notifier: notifier}
}

// Create handles POST /api/webinars (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		response.ValidationFailed(c, "end_date must be after start_date", "end_date")
		return
	}
	if req.Price < 0 {
		response.ValidationFailed(c, "price must not be negative", "price")
		return
	}
	w := &models.Webinar{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Price:           req.Price,
		MaxParticipants: req.MaxParticipants,
		Status:          models.WebinarStatusActive,
	}
	if w.MaxParticipants == 0 {
		w.MaxParticipants = 100
	}
	if err := h.repo.Create(c.Request.Context(), w); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, w)
}

// GetByID handles GET /api/webinars/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	w, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, w)
}

// List handles GET /api/webinars. Filters: ?status=, ?upcoming=true,
// ?limit=, ?offset=.
func (h *Handler) List(c *gin.Context) {
	f := ListFilter{
		Status:       c.Query("status"),
		UpcomingOnly: c.Query("upcoming") == "true",
	}
	if v := c.Query("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Update handles PUT /api/webinars/:id (admin only). Moving the status to
// cancelled notifies confirmed registrants.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	w, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	wasCancelled := w.Status == models.WebinarStatusCancelled
	if req.Title != nil {
		w.Title = *req.Title
	}
	if req.Description != nil {
		w.Description = *req.Description
	}
	if req.StartDate != nil {
		w.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		w.EndDate = *req.EndDate
	}
	if req.Price != nil {
		if *req.Price < 0 {
			response.ValidationFailed(c, "price must not be negative", "price")
			return
		}
		w.Price = *req.Price
	}
	if req.MaxParticipants != nil {
		w.MaxParticipants = *req.MaxParticipants
	}
	if req.Status != nil {
		switch *req.Status {
		case models.WebinarStatusActive, models.WebinarStatusCancelled, models.WebinarStatusCompleted:
			w.Status = *req.Status
		default:
			response.ValidationFailed(c, "invalid status", "status")
			return
		}
	}
	if !w.EndDate.After(w.StartDate) {
		response.ValidationFailed(c, "end_date must be after start_date", "end_date")
		return
	}
	if err := h.repo.Update(c.Request.Context(), w); err != nil {
		response.Error(c, err)
		return
	}
	if !wasCancelled && w.Status == models.WebinarStatusCancelled && h.notifier != nil {
		h.notifier.NotifyWebinarCancelled(c.Request.Context(), w, req.CancelReason)
	}
	response.OK(c, w)
}

// Delete handles DELETE /api/webinars/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OKMessage(c, nil, "webinar deleted")
}

// Stats handles GET /api/webinars/:id/stats (admin only).
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	stats, err := h.repo.Stats(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Summary handles GET /api/stats/webinars (admin only).
func (h *Handler) Summary(c *gin.Context) {
	list, err := h.repo.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
