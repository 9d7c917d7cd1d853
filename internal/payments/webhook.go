package payments

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/internal/sumup"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
	"github.com/1Sidetechnology/webinaire-backend/pkg/response"
)

// GatewayVerifier is the slice of the SumUp client the webhook needs.
type GatewayVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (sumup.WebhookEvent, error)
}

// Store is the slice of the payment repository webhook handling needs.
type Store interface {
	GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, transactionID string, paymentDate *time.Time) error
}

// Confirmer finalises a registration once its payment settled.
type Confirmer interface {
	Confirm(ctx context.Context, registrationID uuid.UUID) error
}

// Webhook processes SumUp payment notifications.
type Webhook struct {
	gateway   GatewayVerifier
	store     Store
	confirmer Confirmer
	logger    *zap.Logger
	now       func() time.Time
}

// NewWebhook creates the webhook processor.
func NewWebhook(gateway GatewayVerifier, store Store, confirmer Confirmer, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{gateway: gateway, store: store, confirmer: confirmer, logger: logger, now: time.Now}
}

// Handle processes POST /api/payment/webhook. Once the signature checks out
// the gateway always gets a 200: a failed confirmation is our problem, not
// the gateway's, and a retry storm would not fix it.
func (w *Webhook) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	if !w.gateway.VerifyWebhookSignature(body, c.GetHeader(sumup.SignatureHeader)) {
		w.logger.Warn("webhook signature rejected", zap.String("remote", c.ClientIP()))
		response.Unauthorized(c, "invalid signature")
		return
	}
	event, err := w.gateway.ParseWebhook(body)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	payment, err := w.store.GetByCheckoutID(ctx, event.CheckoutID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// Unknown checkout: acknowledge so the gateway stops retrying.
			w.logger.Warn("webhook for unknown checkout", zap.String("checkout_id", event.CheckoutID))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		response.Error(c, err)
		return
	}
	if payment.Status == models.PaymentStatusCompleted {
		// Replayed notification; the first delivery already won.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch event.Status {
	case models.PaymentStatusCompleted:
		now := w.now()
		if err := w.store.UpdateStatus(ctx, payment.ID, models.PaymentStatusCompleted, event.TransactionID, &now); err != nil {
			response.Error(c, err)
			return
		}
		w.logger.Info("payment completed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("checkout_id", event.CheckoutID))
		if err := w.confirmer.Confirm(ctx, payment.RegistrationID); err != nil {
			w.logger.Error("post-payment confirmation failed",
				zap.Error(err),
				zap.String("registration_id", payment.RegistrationID.String()))
		}
	case models.PaymentStatusFailed:
		if err := w.store.UpdateStatus(ctx, payment.ID, models.PaymentStatusFailed, event.TransactionID, nil); err != nil {
			response.Error(c, err)
			return
		}
		w.logger.Info("payment failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("checkout_id", event.CheckoutID))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
