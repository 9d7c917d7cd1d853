// Package sumup wraps the SumUp checkout API and webhook verification.
package sumup

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// SignatureHeader carries the webhook HMAC signature.
const SignatureHeader = "X-SumUp-Signature"

// Config holds SumUp API credentials.
type Config struct {
	APIURL        string
	APIKey        string
	MerchantCode  string
	WebhookSecret string
	ReturnURL     string
}

// Client calls the SumUp checkout API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a SumUp client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Checkout is a created checkout session with its hosted payment URL.
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutInfo is the provider-side view of a checkout.
type CheckoutInfo struct {
	ID                string  `json:"id"`
	CheckoutReference string  `json:"checkout_reference"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	TransactionID     string  `json:"transaction_id"`
	Date              string  `json:"date"`
}

// WebhookEvent is a parsed payment notification with the provider status
// already mapped to the internal vocabulary.
type WebhookEvent struct {
	CheckoutID        string
	CheckoutReference string
	Status            string
	TransactionID     string
	Amount            float64
}

type checkoutRequest struct {
	CheckoutReference string  `json:"checkout_reference"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	MerchantCode      string  `json:"merchant_code"`
	Description       string  `json:"description"`
	ReturnURL         string  `json:"return_url"`
}

type webhookPayload struct {
	ID                string  `json:"id"`
	CheckoutReference string  `json:"checkout_reference"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	TransactionID     string  `json:"transaction_id"`
	Timestamp         string  `json:"timestamp"`
}

// CreateCheckout opens a checkout session for a registration. The checkout
// reference is REG-<registration id> so webhooks can be traced back.
func (c *Client) CreateCheckout(ctx context.Context, registrationID uuid.UUID, amount float64, description string) (Checkout, error) {
	payload := checkoutRequest{
		CheckoutReference: "REG-" + registrationID.String(),
		Amount:            amount,
		Currency:          "EUR",
		MerchantCode:      c.cfg.MerchantCode,
		Description:       description,
		ReturnURL:         c.cfg.ReturnURL,
	}
	var info CheckoutInfo
	if err := c.do(ctx, http.MethodPost, "/checkouts", payload, &info); err != nil {
		return Checkout{}, err
	}
	c.logger.Info("sumup checkout created",
		zap.String("checkout_id", info.ID),
		zap.String("registration_id", registrationID.String()))
	return Checkout{ID: info.ID, URL: "https://pay.sumup.com/" + info.ID}, nil
}

// GetCheckout fetches the current provider state of a checkout.
func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (CheckoutInfo, error) {
	var info CheckoutInfo
	if err := c.do(ctx, http.MethodGet, "/checkouts/"+checkoutID, nil, &info); err != nil {
		return CheckoutInfo{}, err
	}
	return info, nil
}

// CheckStatus returns the internal payment status of a checkout and, when
// paid, the provider transaction id.
func (c *Client) CheckStatus(ctx context.Context, checkoutID string) (status, transactionID string, err error) {
	info, err := c.GetCheckout(ctx, checkoutID)
	if err != nil {
		return "", "", err
	}
	status = mapStatus(info.Status)
	if status == models.PaymentStatusCompleted {
		transactionID = info.TransactionID
		if transactionID == "" {
			transactionID = info.ID
		}
	}
	return status, transactionID, nil
}

// Refund requests a refund for a settled transaction.
func (c *Client) Refund(ctx context.Context, transactionID string, amount float64) error {
	body := map[string]float64{"amount": amount}
	if err := c.do(ctx, http.MethodPost, "/me/refund/"+transactionID, body, nil); err != nil {
		return err
	}
	c.logger.Info("sumup refund created", zap.String("transaction_id", transactionID))
	return nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body against
// the signature header using a constant-time comparison.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" || c.cfg.WebhookSecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhook decodes a payment notification, mapping the provider status
// vocabulary to the internal tri-state.
func (c *Client) ParseWebhook(body []byte) (WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookEvent{}, apperr.Wrap(apperr.KindValidation, "invalid webhook payload", err)
	}
	if p.ID == "" {
		return WebhookEvent{}, apperr.Validation("invalid webhook payload", "id")
	}
	return WebhookEvent{
		CheckoutID:        p.ID,
		CheckoutReference: p.CheckoutReference,
		Status:            mapStatus(p.Status),
		TransactionID:     p.TransactionID,
		Amount:            p.Amount,
	}, nil
}

// mapStatus translates SumUp checkout statuses. Unknown values are treated as
// still pending so a new provider status never flips a payment.
func mapStatus(provider string) string {
	switch provider {
	case "PAID":
		return models.PaymentStatusCompleted
	case "FAILED", "CANCELLED":
		return models.PaymentStatusFailed
	case "PENDING":
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusPending
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "sumup request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("sumup api error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", raw))
		return apperr.New(apperr.KindUpstream, fmt.Sprintf("sumup api status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "decode sumup response", err)
	}
	return nil
}
