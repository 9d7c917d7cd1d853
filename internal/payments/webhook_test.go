package payments

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/internal/sumup"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

type fakeVerifier struct {
	valid bool
	event sumup.WebhookEvent
}

func (f *fakeVerifier) VerifyWebhookSignature([]byte, string) bool { return f.valid }

func (f *fakeVerifier) ParseWebhook([]byte) (sumup.WebhookEvent, error) { return f.event, nil }

type fakeWebhookStore struct {
	payment       *models.Payment
	statusUpdates []string
	transactionID string
	paymentDate   *time.Time
}

func (f *fakeWebhookStore) GetByCheckoutID(_ context.Context, checkoutID string) (*models.Payment, error) {
	if f.payment == nil || f.payment.SumUpCheckoutID != checkoutID {
		return nil, apperr.New(apperr.KindNotFound, "payment not found")
	}
	cp := *f.payment
	return &cp, nil
}

func (f *fakeWebhookStore) UpdateStatus(_ context.Context, _ uuid.UUID, status, transactionID string, paymentDate *time.Time) error {
	f.statusUpdates = append(f.statusUpdates, status)
	f.transactionID = transactionID
	f.paymentDate = paymentDate
	f.payment.Status = status
	return nil
}

type fakeConfirmer struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeConfirmer) Confirm(_ context.Context, registrationID uuid.UUID) error {
	f.calls = append(f.calls, registrationID)
	return f.err
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:              uuid.New(),
		RegistrationID:  uuid.New(),
		SumUpCheckoutID: "chk-1",
		Amount:          49.90,
		Status:          models.PaymentStatusPending,
	}
}

func serveWebhook(t *testing.T, w *Webhook) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	_, router := gin.CreateTestContext(rec)
	router.POST("/api/payment/webhook", w.Handle)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", bytes.NewBufferString(`{"id":"chk-1"}`))
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	store := &fakeWebhookStore{payment: pendingPayment()}
	confirmer := &fakeConfirmer{}
	w := NewWebhook(&fakeVerifier{valid: false}, store, confirmer, nil)

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.statusUpdates)
	assert.Empty(t, confirmer.calls)
}

func TestWebhookAcknowledgesUnknownCheckout(t *testing.T) {
	store := &fakeWebhookStore{}
	confirmer := &fakeConfirmer{}
	w := NewWebhook(&fakeVerifier{
		valid: true,
		event: sumup.WebhookEvent{CheckoutID: "chk-unknown", Status: models.PaymentStatusCompleted},
	}, store, confirmer, nil)

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.statusUpdates)
	assert.Empty(t, confirmer.calls)
}

func TestWebhookCompletesPaymentAndConfirms(t *testing.T) {
	payment := pendingPayment()
	store := &fakeWebhookStore{payment: payment}
	confirmer := &fakeConfirmer{}
	w := NewWebhook(&fakeVerifier{
		valid: true,
		event: sumup.WebhookEvent{CheckoutID: "chk-1", Status: models.PaymentStatusCompleted, TransactionID: "txn-9"},
	}, store, confirmer, nil)
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{models.PaymentStatusCompleted}, store.statusUpdates)
	assert.Equal(t, "txn-9", store.transactionID)
	require.NotNil(t, store.paymentDate)
	assert.Equal(t, now, *store.paymentDate)
	assert.Equal(t, []uuid.UUID{payment.RegistrationID}, confirmer.calls)
}

func TestWebhookReplayIsNoOp(t *testing.T) {
	payment := pendingPayment()
	payment.Status = models.PaymentStatusCompleted
	store := &fakeWebhookStore{payment: payment}
	confirmer := &fakeConfirmer{}
	w := NewWebhook(&fakeVerifier{
		valid: true,
		event: sumup.WebhookEvent{CheckoutID: "chk-1", Status: models.PaymentStatusCompleted, TransactionID: "txn-9"},
	}, store, confirmer, nil)

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.statusUpdates)
	assert.Empty(t, confirmer.calls)
}

func TestWebhookMarksFailedWithoutConfirming(t *testing.T) {
	store := &fakeWebhookStore{payment: pendingPayment()}
	confirmer := &fakeConfirmer{}
	w := NewWebhook(&fakeVerifier{
		valid: true,
		event: sumup.WebhookEvent{CheckoutID: "chk-1", Status: models.PaymentStatusFailed},
	}, store, confirmer, nil)

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{models.PaymentStatusFailed}, store.statusUpdates)
	assert.Empty(t, confirmer.calls)
	assert.Nil(t, store.paymentDate)
}

func TestWebhookAcknowledgesWhenConfirmFails(t *testing.T) {
	store := &fakeWebhookStore{payment: pendingPayment()}
	confirmer := &fakeConfirmer{err: apperr.New(apperr.KindUpstream, "calendar down")}
	w := NewWebhook(&fakeVerifier{
		valid: true,
		event: sumup.WebhookEvent{CheckoutID: "chk-1", Status: models.PaymentStatusCompleted},
	}, store, confirmer, nil)

	rec := serveWebhook(t, w)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{models.PaymentStatusCompleted}, store.statusUpdates)
	require.Len(t, confirmer.calls, 1)
}
