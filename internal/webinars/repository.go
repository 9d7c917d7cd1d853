package webinars

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// Repository handles webinar persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new webinar.
func (r *Repository) Create(ctx context.Context, w *models.Webinar) error {
	if w.Status == "" {
		w.Status = models.WebinarStatusActive
	}
	const q = `INSERT INTO webinars (title, description, start_date, end_date, price, max_participants, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, w.Title, w.Description, w.StartDate, w.EndDate, w.Price, w.MaxParticipants, w.Status).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// GetByID returns a webinar by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	const q = `SELECT id, title, COALESCE(description, ''), start_date, end_date, price, max_participants, status, created_at, updated_at
		FROM webinars WHERE id = $1`
	var w models.Webinar
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&w.ID, &w.Title, &w.Description, &w.StartDate, &w.EndDate, &w.Price, &w.MaxParticipants, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "webinar not found")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	Status       string
	UpcomingOnly bool
	Limit        int
	Offset       int
}

// List returns webinars ordered by start date ascending.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Webinar, error) {
	base := `SELECT id, title, COALESCE(description, ''), start_date, end_date, price, max_participants, status, created_at, updated_at FROM webinars`
	var args []interface{}
	var cond string
	if f.Status != "" {
		args = append(args, f.Status)
		cond = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if f.UpcomingOnly {
		if cond == "" {
			cond = " WHERE start_date > NOW()"
		} else {
			cond += " AND start_date > NOW()"
		}
	}
	q := base + cond + " ORDER BY start_date ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Webinar
	for rows.Next() {
		var w models.Webinar
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.StartDate, &w.EndDate, &w.Price, &w.MaxParticipants, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// Update overwrites the mutable fields of a webinar.
func (r *Repository) Update(ctx context.Context, w *models.Webinar) error {
	const q = `UPDATE webinars
		SET title = $1, description = $2, start_date = $3, end_date = $4, price = $5, max_participants = $6, status = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, w.Title, w.Description, w.StartDate, w.EndDate, w.Price, w.MaxParticipants, w.Status, w.ID).
		Scan(&w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "webinar not found")
	}
	return err
}

// Delete removes a webinar. Refused while confirmed registrations exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	confirmed, err := r.CountConfirmed(ctx, id)
	if err != nil {
		return err
	}
	if confirmed > 0 {
		return apperr.New(apperr.KindConflict, "webinar has confirmed registrations")
	}
	const q = `DELETE FROM webinars WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "webinar not found")
	}
	return nil
}

// CountConfirmed counts confirmed registrations. Only those hold a seat, so
// this count drives both the capacity check and the stats views.
func (r *Repository) CountConfirmed(ctx context.Context, id uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE webinar_id = $1 AND status = 'confirmed'`
	var n int
	err := r.pool.QueryRow(ctx, q, id).Scan(&n)
	return n, err
}

// Stats returns the registration load of a webinar.
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (*models.WebinarStats, error) {
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	confirmed, err := r.CountConfirmed(ctx, id)
	if err != nil {
		return nil, err
	}
	spots := w.MaxParticipants - confirmed
	if spots < 0 {
		spots = 0
	}
	return &models.WebinarStats{
		Registrations:  confirmed,
		AvailableSpots: spots,
		IsFull:         confirmed >= w.MaxParticipants,
	}, nil
}

// SummaryRow is one webinar with its registration load.
type SummaryRow struct {
	Webinar models.Webinar      `json:"webinar"`
	Stats   models.WebinarStats `json:"stats"`
}

// Summary returns the registration load of every webinar in one query.
func (r *Repository) Summary(ctx context.Context) ([]SummaryRow, error) {
	const q = `SELECT w.id, w.title, COALESCE(w.description, ''), w.start_date, w.end_date, w.price, w.max_participants, w.status, w.created_at, w.updated_at,
			COUNT(reg.id) FILTER (WHERE reg.status = 'confirmed') AS confirmed
		FROM webinars w
		LEFT JOIN registrations reg ON reg.webinar_id = w.id
		GROUP BY w.id
		ORDER BY w.start_date ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []SummaryRow
	for rows.Next() {
		var row SummaryRow
		var active int
		w := &row.Webinar
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.StartDate, &w.EndDate, &w.Price, &w.MaxParticipants, &w.Status, &w.CreatedAt, &w.UpdatedAt, &active); err != nil {
			return nil, err
		}
		spots := w.MaxParticipants - active
		if spots < 0 {
			spots = 0
		}
		row.Stats = models.WebinarStats{
			Registrations:  active,
			AvailableSpots: spots,
			IsFull:         active >= w.MaxParticipants,
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
