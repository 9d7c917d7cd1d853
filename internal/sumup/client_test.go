package sumup

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := NewClient(Config{WebhookSecret: "s3cret"}, nil)
	body := []byte(`{"id":"chk-1","status":"PAID"}`)

	assert.True(t, c.VerifyWebhookSignature(body, sign("s3cret", body)))
	assert.False(t, c.VerifyWebhookSignature(body, sign("wrong", body)))
	assert.False(t, c.VerifyWebhookSignature(body, ""))

	tampered := []byte(`{"id":"chk-2","status":"PAID"}`)
	assert.False(t, c.VerifyWebhookSignature(tampered, sign("s3cret", body)))
}

func TestVerifyWebhookSignatureWithoutSecret(t *testing.T) {
	c := NewClient(Config{}, nil)
	body := []byte(`{}`)
	assert.False(t, c.VerifyWebhookSignature(body, sign("", body)))
}

func TestParseWebhookMapsProviderStatuses(t *testing.T) {
	c := NewClient(Config{}, nil)

	cases := map[string]string{
		"PAID":      models.PaymentStatusCompleted,
		"FAILED":    models.PaymentStatusFailed,
		"CANCELLED": models.PaymentStatusFailed,
		"PENDING":   models.PaymentStatusPending,
		"SOMETHING": models.PaymentStatusPending,
	}
	for provider, want := range cases {
		body, _ := json.Marshal(map[string]interface{}{
			"id":             "chk-1",
			"status":         provider,
			"transaction_id": "txn-1",
		})
		event, err := c.ParseWebhook(body)
		require.NoError(t, err, provider)
		assert.Equal(t, want, event.Status, provider)
	}
}

func TestParseWebhookRejectsMissingID(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.ParseWebhook([]byte(`{"status":"PAID"}`))
	assert.Error(t, err)
	_, err = c.ParseWebhook([]byte(`not json`))
	assert.Error(t, err)
}

func TestCreateCheckout(t *testing.T) {
	registrationID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkouts", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req checkoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "REG-"+registrationID.String(), req.CheckoutReference)
		assert.Equal(t, 49.90, req.Amount)
		assert.Equal(t, "EUR", req.Currency)
		assert.Equal(t, "M123", req.MerchantCode)

		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chk-1", "status": "PENDING"})
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, APIKey: "key-1", MerchantCode: "M123"}, nil)
	checkout, err := c.CreateCheckout(context.Background(), registrationID, 49.90, "Inscription")
	require.NoError(t, err)
	assert.Equal(t, "chk-1", checkout.ID)
	assert.Equal(t, "https://pay.sumup.com/chk-1", checkout.URL)
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkouts/chk-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chk-1", "status": "PAID", "transaction_id": "txn-9"})
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL}, nil)
	status, txnID, err := c.CheckStatus(context.Background(), "chk-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, status)
	assert.Equal(t, "txn-9", txnID)
}

func TestCheckStatusFallsBackToCheckoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chk-1", "status": "PAID"})
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL}, nil)
	status, txnID, err := c.CheckStatus(context.Background(), "chk-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, status)
	assert.Equal(t, "chk-1", txnID)
}

func TestDoSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL}, nil)
	_, err := c.GetCheckout(context.Background(), "chk-1")
	assert.Error(t, err)
}
