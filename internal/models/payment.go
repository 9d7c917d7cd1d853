package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. Transitions to completed or failed happen only through
// the payment webhook handler, never by client request.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment tracks one checkout attempt for a priced registration (1:1).
// The invoice number is assigned exactly once, after the payment completes.
type Payment struct {
	ID                 uuid.UUID  `json:"id"`
	RegistrationID     uuid.UUID  `json:"registration_id"`
	SumUpCheckoutID    string     `json:"sumup_checkout_id,omitempty"`
	SumUpTransactionID string     `json:"sumup_transaction_id,omitempty"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	InvoiceNumber      string     `json:"invoice_number,omitempty"`
	InvoicePDFURL      string     `json:"invoice_pdf_url,omitempty"`
	PaymentDate        *time.Time `json:"payment_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
