package payments

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
)

// StatusChecker re-polls the gateway for a checkout's current state.
type StatusChecker interface {
	CheckStatus(ctx context.Context, checkoutID string) (status, transactionID string, err error)
}

// Handler handles the payment query endpoints.
type Handler struct {
	repo      *Repository
	gateway   StatusChecker
	confirmer Confirmer
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates a payment handler.
func NewHandler(repo *Repository, gateway StatusChecker, confirmer Confirmer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, gateway: gateway, confirmer: confirmer, logger: logger, now: time.Now}
}

// Status handles GET /api/payments/:id/status. Pending payments are re-polled
// against the gateway so a missed webhook still converges.
func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	ctx := c.Request.Context()
	payment, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payment.Status == models.PaymentStatusPending && payment.SumUpCheckoutID != "" {
		status, txnID, err := h.gateway.CheckStatus(ctx, payment.SumUpCheckoutID)
		if err != nil {
			h.logger.Warn("gateway status poll failed",
				zap.Error(err),
				zap.String("payment_id", payment.ID.String()))
		} else if status != payment.Status {
			var paymentDate *time.Time
			if status == models.PaymentStatusCompleted {
				now := h.now()
				paymentDate = &now
			}
			if err := h.repo.UpdateStatus(ctx, payment.ID, status, txnID, paymentDate); err != nil {
				response.Error(c, err)
				return
			}
			if status == models.PaymentStatusCompleted {
				if err := h.confirmer.Confirm(ctx, payment.RegistrationID); err != nil {
					h.logger.Error("post-payment confirmation failed",
						zap.Error(err),
						zap.String("registration_id", payment.RegistrationID.String()))
				}
			}
			payment, err = h.repo.GetByID(ctx, id)
			if err != nil {
				response.Error(c, err)
				return
			}
		}
	}
	response.OK(c, gin.H{
		"payment_id": payment.ID,
		"status":     payment.Status,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
	})
}

// List handles GET /api/payments (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Return handles GET /api/payment/return, the landing page the gateway sends
// the payer back to after checkout.
func (h *Handler) Return(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, returnPage)
}

const returnPage = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="utf-8">
  <title>Paiement</title>
</head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 60px 20px;">
  <h1>Merci !</h1>
  <p>Votre paiement est en cours de traitement.</p>
  <p>Vous recevrez un email de confirmation avec votre lien Google Meet d&egrave;s validation du paiement.</p>
  <p>Vous pouvez fermer cette page.</p>
</body>
</html>`
