package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registration repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending registration. The partial unique index on
// (user_id, webinar_id) rejects a second live registration; that database
// error surfaces as a conflict.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.Status == "" {
		reg.Status = models.RegistrationStatusPending
	}
	const q = `INSERT INTO registrations (user_id, webinar_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, reg.UserID, reg.WebinarID, reg.Status).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.New(apperr.KindConflict, "user already registered for this webinar")
	}
	return err
}

const registrationColumns = `id, user_id, webinar_id, payment_id, status,
	COALESCE(meet_link, ''), COALESCE(calendar_event_id, ''), reminder_sent, created_at, updated_at`

func scanRegistration(row pgx.Row, reg *models.Registration) error {
	return row.Scan(&reg.ID, &reg.UserID, &reg.WebinarID, &reg.PaymentID, &reg.Status,
		&reg.MeetLink, &reg.CalendarEventID, &reg.ReminderSent, &reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	var reg models.Registration
	err := scanRegistration(r.pool.QueryRow(ctx, q, id), &reg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "registration not found")
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByIDWithDetails returns a registration joined with its user and webinar.
func (r *Repository) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.RegistrationDetails, error) {
	const q = `SELECT r.id, r.user_id, r.webinar_id, r.payment_id, r.status,
			COALESCE(r.meet_link, ''), COALESCE(r.calendar_event_id, ''), r.reminder_sent, r.created_at, r.updated_at,
			u.id, u.email, u.name, COALESCE(u.company, ''), u.role,
			w.id, w.title, COALESCE(w.description, ''), w.start_date, w.end_date, w.price, w.max_participants, w.status
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN webinars w ON w.id = r.webinar_id
		WHERE r.id = $1`
	var d models.RegistrationDetails
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.WebinarID, &d.PaymentID, &d.Status,
		&d.MeetLink, &d.CalendarEventID, &d.ReminderSent, &d.CreatedAt, &d.UpdatedAt,
		&d.User.ID, &d.User.Email, &d.User.Name, &d.User.Company, &d.User.Role,
		&d.Webinar.ID, &d.Webinar.Title, &d.Webinar.Description, &d.Webinar.StartDate, &d.Webinar.EndDate,
		&d.Webinar.Price, &d.Webinar.MaxParticipants, &d.Webinar.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "registration not found")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns all registrations of one user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations
		WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByWebinar returns all registrations for a webinar, newest first.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations
		WHERE webinar_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, webinarID)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// LinkPayment attaches a payment to a registration.
func (r *Repository) LinkPayment(ctx context.Context, id, paymentID uuid.UUID) error {
	const q = `UPDATE registrations SET payment_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, paymentID, id)
	return err
}

// UpdateMeetInfo stores the calendar event id and meet link.
func (r *Repository) UpdateMeetInfo(ctx context.Context, id uuid.UUID, eventID, meetLink string) error {
	const q = `UPDATE registrations SET calendar_event_id = $1, meet_link = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.pool.Exec(ctx, q, eventID, meetLink, id)
	return err
}

// UpdateStatus moves a registration to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	const q = `UPDATE registrations SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "registration not found")
	}
	return nil
}

// MarkReminderSent flips reminder_sent to true.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE registrations SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// DueForReminder returns confirmed, unreminded registrations whose webinar
// starts inside [from, to).
func (r *Repository) DueForReminder(ctx context.Context, from, to time.Time) ([]models.RegistrationDetails, error) {
	const q = `SELECT r.id, r.user_id, r.webinar_id, r.payment_id, r.status,
			COALESCE(r.meet_link, ''), COALESCE(r.calendar_event_id, ''), r.reminder_sent, r.created_at, r.updated_at,
			u.id, u.email, u.name, COALESCE(u.company, ''), u.role,
			w.id, w.title, COALESCE(w.description, ''), w.start_date, w.end_date, w.price, w.max_participants, w.status
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		JOIN webinars w ON w.id = r.webinar_id
		WHERE r.status = 'confirmed' AND r.reminder_sent = FALSE
			AND w.start_date >= $1 AND w.start_date < $2
		ORDER BY w.start_date ASC`
	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.RegistrationDetails
	for rows.Next() {
		var d models.RegistrationDetails
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.WebinarID, &d.PaymentID, &d.Status,
			&d.MeetLink, &d.CalendarEventID, &d.ReminderSent, &d.CreatedAt, &d.UpdatedAt,
			&d.User.ID, &d.User.Email, &d.User.Name, &d.User.Company, &d.User.Role,
			&d.Webinar.ID, &d.Webinar.Title, &d.Webinar.Description, &d.Webinar.StartDate, &d.Webinar.EndDate,
			&d.Webinar.Price, &d.Webinar.MaxParticipants, &d.Webinar.Status); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
