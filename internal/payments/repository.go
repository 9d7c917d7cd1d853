// Package payments persists checkout attempts and handles gateway callbacks.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending payment for a registration.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	const q = `INSERT INTO payments (registration_id, sumup_checkout_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.RegistrationID, nullable(p.SumUpCheckoutID), p.Amount, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

const paymentColumns = `id, registration_id, COALESCE(sumup_checkout_id, ''), COALESCE(sumup_transaction_id, ''),
	amount, currency, status, COALESCE(invoice_number, ''), COALESCE(invoice_pdf_url, ''), payment_date, created_at, updated_at`

func scanPayment(row pgx.Row, p *models.Payment) error {
	return row.Scan(&p.ID, &p.RegistrationID, &p.SumUpCheckoutID, &p.SumUpTransactionID,
		&p.Amount, &p.Currency, &p.Status, &p.InvoiceNumber, &p.InvoicePDFURL, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a payment by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.get(ctx, q, id)
}

// GetByCheckoutID returns the payment attached to a gateway checkout.
func (r *Repository) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE sumup_checkout_id = $1`
	return r.get(ctx, q, checkoutID)
}

// GetByRegistrationID returns the payment of a registration.
func (r *Repository) GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE registration_id = $1`
	return r.get(ctx, q, registrationID)
}

func (r *Repository) get(ctx context.Context, q string, arg interface{}) (*models.Payment, error) {
	var p models.Payment
	err := scanPayment(r.pool.QueryRow(ctx, q, arg), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "payment not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetCheckout stores the gateway checkout id after the session is opened.
func (r *Repository) SetCheckout(ctx context.Context, id uuid.UUID, checkoutID string) error {
	const q = `UPDATE payments SET sumup_checkout_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, checkoutID, id)
	return err
}

// UpdateStatus moves a payment to a new status. Completing a payment records
// the transaction id and the payment date.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status, transactionID string, paymentDate *time.Time) error {
	const q = `UPDATE payments
		SET status = $1,
			sumup_transaction_id = COALESCE(NULLIF($2, ''), sumup_transaction_id),
			payment_date = COALESCE($3, payment_date),
			updated_at = NOW()
		WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, status, transactionID, paymentDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "payment not found")
	}
	return nil
}

// UpdateInvoice stores the assigned invoice number and, when archived, the
// PDF location.
func (r *Repository) UpdateInvoice(ctx context.Context, id uuid.UUID, invoiceNumber, pdfURL string) error {
	const q = `UPDATE payments SET invoice_number = $1, invoice_pdf_url = NULLIF($2, ''), updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, invoiceNumber, pdfURL, id)
	return err
}

// CountCompletedInMonth counts completed payments dated inside one calendar
// month. Drives invoice sequence numbers.
func (r *Repository) CountCompletedInMonth(ctx context.Context, year int, month time.Month) (int, error) {
	const q = `SELECT COUNT(*) FROM payments
		WHERE status = 'completed'
			AND payment_date >= $1 AND payment_date < $2`
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	var n int
	err := r.pool.QueryRow(ctx, q, from, to).Scan(&n)
	return n, err
}

// List returns all payments, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
