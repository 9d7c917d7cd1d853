// Package reminder sends the day-before reminder email to confirmed
// registrants.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
)

// Store is the slice of the registration repository the sweep needs.
type Store interface {
	DueForReminder(ctx context.Context, from, to time.Time) ([]models.RegistrationDetails, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// Mailer sends reminder emails.
type Mailer interface {
	SendWebinarReminder(ctx context.Context, p mailer.ReminderParams) error
}

// Sweeper runs the daily reminder sweep.
type Sweeper struct {
	store  Store
	mailer Mailer
	logger *zap.Logger
	now    func() time.Time
}

// NewSweeper creates a reminder sweeper.
func NewSweeper(store Store, m Mailer, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, mailer: m, logger: logger, now: time.Now}
}

// Sweep sends reminders for webinars starting tomorrow. One failing row never
// stops the rest of the sweep; unsent rows are retried by the next run.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	to := from.Add(24 * time.Hour)

	due, err := s.store.DueForReminder(ctx, from, to)
	if err != nil {
		return err
	}
	sent := 0
	for _, d := range due {
		if err := s.mailer.SendWebinarReminder(ctx, mailer.ReminderParams{
			To:             d.User.Email,
			UserName:       d.User.Name,
			WebinarTitle:   d.Webinar.Title,
			WebinarDate:    d.Webinar.StartDate,
			MeetLink:       d.MeetLink,
			WebinarID:      d.WebinarID,
			RegistrationID: d.ID,
		}); err != nil {
			s.logger.Warn("send reminder failed",
				zap.Error(err),
				zap.String("registration_id", d.ID.String()))
			continue
		}
		if err := s.store.MarkReminderSent(ctx, d.ID); err != nil {
			s.logger.Warn("mark reminder sent failed",
				zap.Error(err),
				zap.String("registration_id", d.ID.String()))
			continue
		}
		sent++
	}
	s.logger.Info("reminder sweep done", zap.Int("due", len(due)), zap.Int("sent", sent))
	return nil
}

// Run sweeps every day at 09:00 local time until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		next := s.nextRun()
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("reminder sweep failed", zap.Error(err))
		}
	}
}

func (s *Sweeper) nextRun() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
