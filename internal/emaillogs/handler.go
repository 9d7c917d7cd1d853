package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/1Sidetechnology/webinaire-backend/pkg/queue"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo  *Repository
	queue *queue.Queue
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, q *queue.Queue) *Handler {
	return &Handler{repo: repo, queue: q}
}

// ListByWebinar handles GET /api/webinars/:id/emails (admin only).
func (h *Handler) ListByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	logs, err := h.repo.ListByWebinar(c.Request.Context(), webinarID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

// ResendRequest is the body for POST /api/webinars/:id/emails/resend.
type ResendRequest struct {
	EmailLogID string `json:"email_log_id" binding:"required,uuid"`
}

// Resend handles POST /api/webinars/:id/emails/resend (admin only). The
// actual delivery happens in the email worker.
func (h *Handler) Resend(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("id")); err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var body ResendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email_log_id required")
		return
	}
	logID, err := uuid.Parse(body.EmailLogID)
	if err != nil {
		response.BadRequest(c, "invalid email_log_id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), logID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.queue.EnqueueEmailResend(c.Request.Context(), queue.EmailResendPayload{EmailLogID: logID}); err != nil {
		response.Error(c, err)
		return
	}
	response.OKMessage(c, nil, "resend queued")
}
