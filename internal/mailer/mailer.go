// Package mailer sends transactional HTML email over SMTP and records every
// delivery attempt to the email log.
package mailer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// Config holds SMTP settings and the sender identity.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromName    string
	FromAddress string
	CompanyName string
}

// LogStore records delivery attempts. Optional; nil disables logging.
type LogStore interface {
	Record(ctx context.Context, log *models.EmailLog) error
}

// Attachment is an inline binary attachment.
type Attachment struct {
	Filename string
	Content  []byte
	MIME     string
}

// Message is a rendered email ready for delivery.
type Message struct {
	To         string
	Subject    string
	HTML       string
	Attachment *Attachment
}

// Mailer delivers messages through an SMTP dialer.
type Mailer struct {
	dialer *gomail.Dialer
	cfg    Config
	logs   LogStore
	logger *zap.Logger
}

// New creates a mailer. logs may be nil.
func New(cfg Config, logs LogStore, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		cfg:    cfg,
		logs:   logs,
		logger: logger,
	}
}

// Send delivers one message. The error is an apperr upstream failure.
func (m *Mailer) Send(_ context.Context, msg Message) error {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.cfg.FromAddress, m.cfg.FromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	if att := msg.Attachment; att != nil {
		gm.Attach(att.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.Content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {att.MIME}}),
		)
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "send email", err)
	}
	return nil
}

// ConfirmationParams drives the registration confirmation email.
type ConfirmationParams struct {
	To             string
	UserName       string
	WebinarTitle   string
	WebinarDate    time.Time
	MeetLink       string
	InvoicePDF     []byte
	WebinarID      uuid.UUID
	RegistrationID uuid.UUID
}

// SendRegistrationConfirmation emails the meet link and, when present, the
// invoice as a PDF attachment.
func (m *Mailer) SendRegistrationConfirmation(ctx context.Context, p ConfirmationParams) error {
	msg := Message{
		To:      p.To,
		Subject: "Confirmation d'inscription - " + p.WebinarTitle,
		HTML:    confirmationHTML(p, m.cfg.CompanyName),
	}
	if len(p.InvoicePDF) > 0 {
		msg.Attachment = &Attachment{Filename: "facture.pdf", Content: p.InvoicePDF, MIME: "application/pdf"}
	}
	err := m.Send(ctx, msg)
	m.record(ctx, models.EmailTypeRegistrationConfirmation, p.WebinarID, p.RegistrationID, msg, err)
	return err
}

// ReminderParams drives the day-before reminder email.
type ReminderParams struct {
	To             string
	UserName       string
	WebinarTitle   string
	WebinarDate    time.Time
	MeetLink       string
	WebinarID      uuid.UUID
	RegistrationID uuid.UUID
}

// SendWebinarReminder emails the day-before reminder with the meet link.
func (m *Mailer) SendWebinarReminder(ctx context.Context, p ReminderParams) error {
	msg := Message{
		To:      p.To,
		Subject: "Rappel : " + p.WebinarTitle + " - Demain !",
		HTML:    reminderHTML(p, m.cfg.CompanyName),
	}
	err := m.Send(ctx, msg)
	m.record(ctx, models.EmailTypeReminder, p.WebinarID, p.RegistrationID, msg, err)
	return err
}

// CancellationParams drives the webinar cancellation notice.
type CancellationParams struct {
	To             string
	UserName       string
	WebinarTitle   string
	Reason         string
	WebinarID      uuid.UUID
	RegistrationID uuid.UUID
}

// SendCancellation notifies a registrant that the webinar was cancelled.
func (m *Mailer) SendCancellation(ctx context.Context, p CancellationParams) error {
	msg := Message{
		To:      p.To,
		Subject: "Annulation - " + p.WebinarTitle,
		HTML:    cancellationHTML(p, m.cfg.CompanyName),
	}
	err := m.Send(ctx, msg)
	m.record(ctx, models.EmailTypeCancellation, p.WebinarID, p.RegistrationID, msg, err)
	return err
}

func (m *Mailer) record(ctx context.Context, emailType string, webinarID, registrationID uuid.UUID, msg Message, sendErr error) {
	if m.logs == nil {
		return
	}
	log := &models.EmailLog{
		EmailType:      emailType,
		RecipientEmail: msg.To,
		Subject:        msg.Subject,
		Status:         models.EmailLogStatusSent,
	}
	if webinarID != uuid.Nil {
		log.WebinarID = &webinarID
	}
	if registrationID != uuid.Nil {
		log.RegistrationID = &registrationID
	}
	if sendErr != nil {
		log.Status = models.EmailLogStatusFailed
		log.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		log.SentAt = &now
	}
	if err := m.logs.Record(ctx, log); err != nil {
		m.logger.Warn("record email log failed", zap.Error(err), zap.String("recipient", msg.To))
	}
}
