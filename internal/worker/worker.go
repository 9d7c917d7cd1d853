// Package worker consumes the Redis email queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/queue"
)

// LogStore is the slice of the email log repository the worker needs.
type LogStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error
}

// RegistrationStore loads the registration behind a logged email.
type RegistrationStore interface {
	GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.RegistrationDetails, error)
}

// Mailer re-sends lifecycle emails.
type Mailer interface {
	SendRegistrationConfirmation(ctx context.Context, p mailer.ConfirmationParams) error
	SendWebinarReminder(ctx context.Context, p mailer.ReminderParams) error
	SendCancellation(ctx context.Context, p mailer.CancellationParams) error
}

// EmailProcessor re-sends logged emails from queue jobs.
type EmailProcessor struct {
	logs          LogStore
	registrations RegistrationStore
	mailer        Mailer
	queue         *queue.Queue
	logger        *zap.Logger
}

// NewEmailProcessor creates the email resend processor.
func NewEmailProcessor(logs LogStore, registrations RegistrationStore, m Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, registrations: registrations, mailer: m, queue: q, logger: logger}
}

// Process executes one email resend job. The email content is rebuilt from
// the registration; resent confirmations carry no invoice attachment.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmailResend {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailResendPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log, err := p.logs.GetByID(ctx, payload.EmailLogID)
	if err != nil {
		return fmt.Errorf("load email log: %w", err)
	}
	if log.RegistrationID == nil {
		return fmt.Errorf("email log %s has no registration", log.ID)
	}
	d, err := p.registrations.GetByIDWithDetails(ctx, *log.RegistrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}

	switch log.EmailType {
	case models.EmailTypeRegistrationConfirmation:
		err = p.mailer.SendRegistrationConfirmation(ctx, mailer.ConfirmationParams{
			To:             d.User.Email,
			UserName:       d.User.Name,
			WebinarTitle:   d.Webinar.Title,
			WebinarDate:    d.Webinar.StartDate,
			MeetLink:       d.MeetLink,
			WebinarID:      d.WebinarID,
			RegistrationID: d.ID,
		})
	case models.EmailTypeReminder:
		err = p.mailer.SendWebinarReminder(ctx, mailer.ReminderParams{
			To:             d.User.Email,
			UserName:       d.User.Name,
			WebinarTitle:   d.Webinar.Title,
			WebinarDate:    d.Webinar.StartDate,
			MeetLink:       d.MeetLink,
			WebinarID:      d.WebinarID,
			RegistrationID: d.ID,
		})
	case models.EmailTypeCancellation:
		err = p.mailer.SendCancellation(ctx, mailer.CancellationParams{
			To:             d.User.Email,
			UserName:       d.User.Name,
			WebinarTitle:   d.Webinar.Title,
			WebinarID:      d.WebinarID,
			RegistrationID: d.ID,
		})
	default:
		return fmt.Errorf("unknown email type: %s", log.EmailType)
	}
	if err != nil {
		if markErr := p.logs.MarkFailed(ctx, log.ID, err.Error()); markErr != nil {
			p.logger.Warn("mark email log failed", zap.Error(markErr), zap.String("email_log_id", log.ID.String()))
		}
		return fmt.Errorf("resend email: %w", err)
	}
	if err := p.logs.MarkSent(ctx, log.ID); err != nil {
		p.logger.Warn("mark email log sent", zap.Error(err), zap.String("email_log_id", log.ID.String()))
	}
	p.logger.Info("email resent",
		zap.String("email_log_id", log.ID.String()),
		zap.String("email_type", log.EmailType))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
