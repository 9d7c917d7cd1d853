package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1Sidetechnology/webinaire-backend/internal/gcal"
	"github.com/1Sidetechnology/webinaire-backend/internal/invoice"
	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/internal/sumup"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// WebinarStore is the slice of the webinar repository the service needs.
type WebinarStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	CountConfirmed(ctx context.Context, id uuid.UUID) (int, error)
}

// UserStore upserts attendee accounts.
type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
}

// Store is the slice of the registration repository the service needs.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.RegistrationDetails, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error)
	LinkPayment(ctx context.Context, id, paymentID uuid.UUID) error
	UpdateMeetInfo(ctx context.Context, id uuid.UUID, eventID, meetLink string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// PaymentStore is the slice of the payment repository the service needs.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	SetCheckout(ctx context.Context, id uuid.UUID, checkoutID string) error
	GetByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*models.Payment, error)
	CountCompletedInMonth(ctx context.Context, year int, month time.Month) (int, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, invoiceNumber, pdfURL string) error
}

// Gateway opens hosted checkout sessions.
type Gateway interface {
	CreateCheckout(ctx context.Context, registrationID uuid.UUID, amount float64, description string) (sumup.Checkout, error)
}

// Calendar provisions Meet-backed calendar events.
type Calendar interface {
	CreateEvent(ctx context.Context, in gcal.EventInput, attendeeEmail string) (eventID, meetLink string, err error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Mailer sends registration lifecycle emails.
type Mailer interface {
	SendRegistrationConfirmation(ctx context.Context, p mailer.ConfirmationParams) error
	SendCancellation(ctx context.Context, p mailer.CancellationParams) error
}

// InvoiceRenderer renders invoice PDFs.
type InvoiceRenderer interface {
	Render(d invoice.Data) ([]byte, error)
}

// InvoiceArchive stores rendered invoices. Optional; nil disables archiving.
type InvoiceArchive interface {
	UploadInvoice(ctx context.Context, invoiceNumber string, pdf []byte) (url string, err error)
}

// Service implements the registration workflow: create, confirm, cancel.
type Service struct {
	webinars WebinarStore
	users    UserStore
	store    Store
	payments PaymentStore
	gateway  Gateway
	calendar Calendar
	mailer   Mailer
	invoices InvoiceRenderer
	archive  InvoiceArchive
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the registration workflow. archive may be nil.
func NewService(webinars WebinarStore, users UserStore, store Store, payments PaymentStore,
	gateway Gateway, calendar Calendar, m Mailer, invoices InvoiceRenderer, archive InvoiceArchive,
	logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		webinars: webinars,
		users:    users,
		store:    store,
		payments: payments,
		gateway:  gateway,
		calendar: calendar,
		mailer:   m,
		invoices: invoices,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateInput carries the attendee identity and the target webinar.
type CreateInput struct {
	WebinarID uuid.UUID
	Email     string
	Name      string
	Company   string
}

// CreateResult is the outcome of a registration request. CheckoutURL is set
// only for priced webinars; those stay pending until the payment webhook.
type CreateResult struct {
	Registration *models.Registration `json:"registration"`
	Payment      *models.Payment      `json:"payment,omitempty"`
	CheckoutURL  string               `json:"checkout_url,omitempty"`
}

// Create registers an attendee. Free webinars confirm synchronously; priced
// webinars return a checkout URL and wait for the payment webhook.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	w, err := s.webinars.GetByID(ctx, in.WebinarID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WebinarStatusActive {
		return nil, apperr.New(apperr.KindValidation, "webinar is not open for registration")
	}
	// Only confirmed registrations hold a seat; pending ones have not paid.
	confirmed, err := s.webinars.CountConfirmed(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	if confirmed >= w.MaxParticipants {
		return nil, apperr.New(apperr.KindCapacity, "webinar is full")
	}

	user := &models.User{Email: in.Email, Name: in.Name, Company: in.Company}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	reg := &models.Registration{UserID: user.ID, WebinarID: w.ID, Status: models.RegistrationStatusPending}
	if err := s.store.Create(ctx, reg); err != nil {
		return nil, err
	}

	if w.Price > 0 {
		payment := &models.Payment{RegistrationID: reg.ID, Amount: w.Price, Currency: "EUR"}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
		checkout, err := s.gateway.CreateCheckout(ctx, reg.ID, w.Price, "Inscription webinaire : "+w.Title)
		if err != nil {
			return nil, err
		}
		if err := s.payments.SetCheckout(ctx, payment.ID, checkout.ID); err != nil {
			return nil, err
		}
		payment.SumUpCheckoutID = checkout.ID
		if err := s.store.LinkPayment(ctx, reg.ID, payment.ID); err != nil {
			return nil, err
		}
		reg.PaymentID = &payment.ID
		s.logger.Info("registration pending payment",
			zap.String("registration_id", reg.ID.String()),
			zap.String("checkout_id", checkout.ID))
		return &CreateResult{Registration: reg, Payment: payment, CheckoutURL: checkout.URL}, nil
	}

	if err := s.Confirm(ctx, reg.ID); err != nil {
		return nil, err
	}
	confirmedReg, err := s.store.GetByID(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Registration: confirmedReg}, nil
}

// Confirm provisions the calendar event with its Meet link, moves the
// registration to confirmed, assigns an invoice for paid registrations and
// sends the confirmation email. Already-confirmed registrations are a no-op.
// Every step's failure surfaces to the caller; the webhook handler decides
// what to swallow.
func (s *Service) Confirm(ctx context.Context, registrationID uuid.UUID) error {
	d, err := s.store.GetByIDWithDetails(ctx, registrationID)
	if err != nil {
		return err
	}
	if d.Status == models.RegistrationStatusConfirmed {
		return nil
	}

	eventID, meetLink, err := s.calendar.CreateEvent(ctx, gcal.EventInput{
		Title:       d.Webinar.Title,
		Description: d.Webinar.Description,
		Start:       d.Webinar.StartDate,
		End:         d.Webinar.EndDate,
	}, d.User.Email)
	if err != nil {
		return err
	}
	if err := s.store.UpdateMeetInfo(ctx, d.ID, eventID, meetLink); err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, d.ID, models.RegistrationStatusConfirmed); err != nil {
		return err
	}

	var invoicePDF []byte
	if payment, err := s.payments.GetByRegistrationID(ctx, d.ID); err == nil &&
		payment.Status == models.PaymentStatusCompleted {
		invoicePDF, err = s.issueInvoice(ctx, payment, d)
		if err != nil {
			return err
		}
	}

	if err := s.mailer.SendRegistrationConfirmation(ctx, mailer.ConfirmationParams{
		To:             d.User.Email,
		UserName:       d.User.Name,
		WebinarTitle:   d.Webinar.Title,
		WebinarDate:    d.Webinar.StartDate,
		MeetLink:       meetLink,
		InvoicePDF:     invoicePDF,
		WebinarID:      d.WebinarID,
		RegistrationID: d.ID,
	}); err != nil {
		return err
	}
	s.logger.Info("registration confirmed",
		zap.String("registration_id", d.ID.String()),
		zap.String("event_id", eventID))
	return nil
}

// issueInvoice assigns the next invoice number, renders the PDF and persists
// the number. The invoice is dated from the payment date so a delayed
// confirmation retry stays in the month the payment settled. The
// count-then-format sequence can race under concurrent webhooks for the same
// month; accepted for the current volume.
func (s *Service) issueInvoice(ctx context.Context, payment *models.Payment, d *models.RegistrationDetails) ([]byte, error) {
	if payment.InvoiceNumber != "" {
		return nil, nil
	}
	issued := s.now()
	if payment.PaymentDate != nil {
		issued = *payment.PaymentDate
	}
	count, err := s.payments.CountCompletedInMonth(ctx, issued.Year(), issued.Month())
	if err != nil {
		return nil, err
	}
	number := fmt.Sprintf("INV-%d%02d-%04d", issued.Year(), int(issued.Month()), count+1)
	pdf, err := s.invoices.Render(invoice.Data{
		Number:          number,
		Date:            issued,
		CustomerName:    d.User.Name,
		CustomerEmail:   d.User.Email,
		CustomerCompany: d.User.Company,
		WebinarTitle:    d.Webinar.Title,
		WebinarDate:     d.Webinar.StartDate,
		Amount:          payment.Amount,
		PaymentMethod:   "Carte bancaire (SumUp)",
	})
	if err != nil {
		return nil, err
	}
	var pdfURL string
	if s.archive != nil {
		// The archive is an optional copy; the attached invoice already exists.
		url, err := s.archive.UploadInvoice(ctx, number, pdf)
		if err != nil {
			s.bestEffort("archive invoice", err, zap.String("invoice_number", number))
		} else {
			pdfURL = url
		}
	}
	if err := s.payments.UpdateInvoice(ctx, payment.ID, number, pdfURL); err != nil {
		return nil, err
	}
	payment.InvoiceNumber = number
	s.logger.Info("invoice issued",
		zap.String("invoice_number", number),
		zap.String("payment_id", payment.ID.String()))
	return pdf, nil
}

// Cancel moves a registration to cancelled. Only the owner (or an admin) may
// cancel; the calendar event deletion is best effort.
func (s *Service) Cancel(ctx context.Context, registrationID, requestingUserID uuid.UUID, isAdmin bool) error {
	reg, err := s.store.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg.UserID != requestingUserID && !isAdmin {
		return apperr.New(apperr.KindForbidden, "registration belongs to another user")
	}
	if reg.Status == models.RegistrationStatusCancelled {
		return apperr.New(apperr.KindValidation, "registration is already cancelled")
	}
	if err := s.store.UpdateStatus(ctx, reg.ID, models.RegistrationStatusCancelled); err != nil {
		return err
	}
	if reg.CalendarEventID != "" {
		if err := s.calendar.DeleteEvent(ctx, reg.CalendarEventID); err != nil {
			s.bestEffort("delete calendar event", err, zap.String("event_id", reg.CalendarEventID))
		}
	}
	s.logger.Info("registration cancelled", zap.String("registration_id", reg.ID.String()))
	return nil
}

// GetByID returns a registration with its user and webinar. Non-admins only
// see their own.
func (s *Service) GetByID(ctx context.Context, registrationID, requestingUserID uuid.UUID, isAdmin bool) (*models.RegistrationDetails, error) {
	d, err := s.store.GetByIDWithDetails(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if d.UserID != requestingUserID && !isAdmin {
		return nil, apperr.New(apperr.KindForbidden, "registration belongs to another user")
	}
	return d, nil
}

// ListMine returns the registrations of the requesting user.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByWebinar returns all registrations of a webinar (admin view).
func (s *Service) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	return s.store.ListByWebinar(ctx, webinarID)
}

// NotifyWebinarCancelled emails every non-cancelled registrant, cancels their
// registration and drops the calendar events. Everything here is best effort;
// the webinar status change already happened.
func (s *Service) NotifyWebinarCancelled(ctx context.Context, w *models.Webinar, reason string) {
	regs, err := s.store.ListByWebinar(ctx, w.ID)
	if err != nil {
		s.bestEffort("list registrations for cancellation", err, zap.String("webinar_id", w.ID.String()))
		return
	}
	for _, reg := range regs {
		if reg.Status == models.RegistrationStatusCancelled {
			continue
		}
		d, err := s.store.GetByIDWithDetails(ctx, reg.ID)
		if err != nil {
			s.bestEffort("load registration for cancellation", err, zap.String("registration_id", reg.ID.String()))
			continue
		}
		if err := s.mailer.SendCancellation(ctx, mailer.CancellationParams{
			To:             d.User.Email,
			UserName:       d.User.Name,
			WebinarTitle:   w.Title,
			Reason:         reason,
			WebinarID:      w.ID,
			RegistrationID: reg.ID,
		}); err != nil {
			s.bestEffort("send cancellation email", err, zap.String("registration_id", reg.ID.String()))
		}
		if err := s.store.UpdateStatus(ctx, reg.ID, models.RegistrationStatusCancelled); err != nil {
			s.bestEffort("cancel registration", err, zap.String("registration_id", reg.ID.String()))
			continue
		}
		if reg.CalendarEventID != "" {
			if err := s.calendar.DeleteEvent(ctx, reg.CalendarEventID); err != nil {
				s.bestEffort("delete calendar event", err, zap.String("event_id", reg.CalendarEventID))
			}
		}
	}
	s.logger.Info("webinar cancellation processed",
		zap.String("webinar_id", w.ID.String()),
		zap.Int("registrations", len(regs)))
}

// bestEffort logs a failure that must not interrupt the surrounding flow.
func (s *Service) bestEffort(op string, err error, fields ...zap.Field) {
	s.logger.Warn(op+" failed", append(fields, zap.Error(err))...)
}
