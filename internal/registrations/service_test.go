package registrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1Sidetechnology/webinaire-backend/internal/gcal"
	"github.com/1Sidetechnology/webinaire-backend/internal/invoice"
	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/internal/sumup"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

type fakeWebinarStore struct {
	webinar   *models.Webinar
	confirmed int
}

func (f *fakeWebinarStore) GetByID(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	if f.webinar == nil || f.webinar.ID != id {
		return nil, apperr.New(apperr.KindNotFound, "webinar not found")
	}
	w := *f.webinar
	return &w, nil
}

func (f *fakeWebinarStore) CountConfirmed(context.Context, uuid.UUID) (int, error) {
	return f.confirmed, nil
}

type fakeUserStore struct {
	upserts int
}

func (f *fakeUserStore) Upsert(_ context.Context, u *models.User) error {
	f.upserts++
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type fakeStore struct {
	regs      map[uuid.UUID]*models.Registration
	user      models.User
	webinar   models.Webinar
	createErr error
}

func newFakeStore(w models.Webinar) *fakeStore {
	return &fakeStore{
		regs:    make(map[uuid.UUID]*models.Registration),
		user:    models.User{ID: uuid.New(), Email: "jean@example.com", Name: "Jean Dupont"},
		webinar: w,
	}
}

func (f *fakeStore) Create(_ context.Context, reg *models.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	reg.ID = uuid.New()
	cp := *reg
	f.regs[reg.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, ok := f.regs[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "registration not found")
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeStore) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.RegistrationDetails, error) {
	reg, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RegistrationDetails{Registration: *reg, User: f.user, Webinar: f.webinar}, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Registration, error) {
	var list []models.Registration
	for _, reg := range f.regs {
		if reg.UserID == userID {
			list = append(list, *reg)
		}
	}
	return list, nil
}

func (f *fakeStore) ListByWebinar(_ context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	var list []models.Registration
	for _, reg := range f.regs {
		if reg.WebinarID == webinarID {
			list = append(list, *reg)
		}
	}
	return list, nil
}

func (f *fakeStore) LinkPayment(_ context.Context, id, paymentID uuid.UUID) error {
	f.regs[id].PaymentID = &paymentID
	return nil
}

func (f *fakeStore) UpdateMeetInfo(_ context.Context, id uuid.UUID, eventID, meetLink string) error {
	f.regs[id].CalendarEventID = eventID
	f.regs[id].MeetLink = meetLink
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.regs[id].Status = status
	return nil
}

type fakePaymentStore struct {
	payments       map[uuid.UUID]*models.Payment
	completedCount int
	invoiceNumbers []string
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[uuid.UUID]*models.Payment)}
}

func (f *fakePaymentStore) Create(_ context.Context, p *models.Payment) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentStore) SetCheckout(_ context.Context, id uuid.UUID, checkoutID string) error {
	f.payments[id].SumUpCheckoutID = checkoutID
	return nil
}

func (f *fakePaymentStore) GetByRegistrationID(_ context.Context, registrationID uuid.UUID) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.RegistrationID == registrationID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "payment not found")
}

func (f *fakePaymentStore) CountCompletedInMonth(context.Context, int, time.Month) (int, error) {
	return f.completedCount, nil
}

func (f *fakePaymentStore) UpdateInvoice(_ context.Context, id uuid.UUID, invoiceNumber, pdfURL string) error {
	f.payments[id].InvoiceNumber = invoiceNumber
	f.payments[id].InvoicePDFURL = pdfURL
	f.invoiceNumbers = append(f.invoiceNumbers, invoiceNumber)
	return nil
}

type fakeGateway struct {
	calls    int
	checkout sumup.Checkout
	err      error
}

func (f *fakeGateway) CreateCheckout(_ context.Context, _ uuid.UUID, _ float64, _ string) (sumup.Checkout, error) {
	f.calls++
	if f.err != nil {
		return sumup.Checkout{}, f.err
	}
	return f.checkout, nil
}

type fakeCalendar struct {
	creates   int
	deletes   []string
	createErr error
	deleteErr error
}

func (f *fakeCalendar) CreateEvent(context.Context, gcal.EventInput, string) (string, string, error) {
	f.creates++
	if f.createErr != nil {
		return "", "", f.createErr
	}
	return "evt-1", "https://meet.google.com/abc-defg-hij", nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, eventID string) error {
	f.deletes = append(f.deletes, eventID)
	return f.deleteErr
}

type fakeMailer struct {
	confirmations []mailer.ConfirmationParams
	cancellations []mailer.CancellationParams
	sendErr       error
}

func (f *fakeMailer) SendRegistrationConfirmation(_ context.Context, p mailer.ConfirmationParams) error {
	f.confirmations = append(f.confirmations, p)
	return f.sendErr
}

func (f *fakeMailer) SendCancellation(_ context.Context, p mailer.CancellationParams) error {
	f.cancellations = append(f.cancellations, p)
	return f.sendErr
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(invoice.Data) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

type fixture struct {
	svc      *Service
	webinars *fakeWebinarStore
	users    *fakeUserStore
	store    *fakeStore
	payments *fakePaymentStore
	gateway  *fakeGateway
	calendar *fakeCalendar
	mailer   *fakeMailer
	renderer *fakeRenderer
}

func newFixture(w models.Webinar) *fixture {
	f := &fixture{
		webinars: &fakeWebinarStore{webinar: &w},
		users:    &fakeUserStore{},
		store:    newFakeStore(w),
		payments: newFakePaymentStore(),
		gateway:  &fakeGateway{checkout: sumup.Checkout{ID: "chk-1", URL: "https://pay.sumup.com/chk-1"}},
		calendar: &fakeCalendar{},
		mailer:   &fakeMailer{},
		renderer: &fakeRenderer{},
	}
	f.svc = NewService(f.webinars, f.users, f.store, f.payments,
		f.gateway, f.calendar, f.mailer, f.renderer, nil, nil)
	f.svc.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return f
}

func activeWebinar(price float64) models.Webinar {
	return models.Webinar{
		ID:              uuid.New(),
		Title:           "Go avancé",
		StartDate:       time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, time.April, 2, 16, 0, 0, 0, time.UTC),
		Price:           price,
		MaxParticipants: 50,
		Status:          models.WebinarStatusActive,
	}
}

func TestCreateFreeWebinarConfirmsImmediately(t *testing.T) {
	f := newFixture(activeWebinar(0))

	result, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: f.webinars.webinar.ID,
		Email:     "jean@example.com",
		Name:      "Jean Dupont",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusConfirmed, result.Registration.Status)
	assert.Empty(t, result.CheckoutURL)
	assert.Nil(t, result.Payment)
	assert.Equal(t, 0, f.gateway.calls)
	assert.Empty(t, f.payments.payments)
	assert.Equal(t, 1, f.calendar.creates)
	require.Len(t, f.mailer.confirmations, 1)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", f.mailer.confirmations[0].MeetLink)
	assert.Empty(t, f.mailer.confirmations[0].InvoicePDF)
}

func TestCreatePricedWebinarReturnsCheckout(t *testing.T) {
	f := newFixture(activeWebinar(49.90))

	result, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: f.webinars.webinar.ID,
		Email:     "jean@example.com",
		Name:      "Jean Dupont",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusPending, result.Registration.Status)
	assert.Equal(t, "https://pay.sumup.com/chk-1", result.CheckoutURL)
	require.NotNil(t, result.Payment)
	assert.Equal(t, 49.90, result.Payment.Amount)
	assert.Equal(t, "chk-1", f.payments.payments[result.Payment.ID].SumUpCheckoutID)
	assert.NotNil(t, result.Registration.PaymentID)
	// No calendar event and no email until the webhook lands.
	assert.Equal(t, 0, f.calendar.creates)
	assert.Empty(t, f.mailer.confirmations)
}

func TestCreateRejectsInactiveWebinar(t *testing.T) {
	w := activeWebinar(0)
	w.Status = models.WebinarStatusCancelled
	f := newFixture(w)

	_, err := f.svc.Create(context.Background(), CreateInput{WebinarID: w.ID, Email: "a@b.fr", Name: "A"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 0, f.users.upserts)
}

func TestCreateRejectsFullWebinar(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.webinars.confirmed = 50

	_, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: f.webinars.webinar.ID, Email: "a@b.fr", Name: "A",
	})
	assert.True(t, apperr.Is(err, apperr.KindCapacity))
}

func TestCreateCapacityIgnoresPendingRegistrations(t *testing.T) {
	w := activeWebinar(49.90)
	w.MaxParticipants = 1
	f := newFixture(w)

	// A pending registration holds no seat until its payment completes.
	pending := &models.Registration{UserID: uuid.New(), WebinarID: w.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), pending))
	f.webinars.confirmed = 0

	result, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: w.ID, Email: "jean@example.com", Name: "Jean Dupont",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, result.Registration.Status)
	assert.Equal(t, "https://pay.sumup.com/chk-1", result.CheckoutURL)
}

func TestCreateRejectsUnknownWebinar(t *testing.T) {
	f := newFixture(activeWebinar(0))

	_, err := f.svc.Create(context.Background(), CreateInput{WebinarID: uuid.New(), Email: "a@b.fr", Name: "A"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateSurfacesDuplicateAsConflict(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.store.createErr = apperr.New(apperr.KindConflict, "user already registered for this webinar")

	_, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: f.webinars.webinar.ID, Email: "a@b.fr", Name: "A",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestConfirmAssignsInvoiceForCompletedPayment(t *testing.T) {
	f := newFixture(activeWebinar(49.90))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), reg))
	payment := &models.Payment{RegistrationID: reg.ID, Amount: 49.90, Status: models.PaymentStatusCompleted}
	require.NoError(t, f.payments.Create(context.Background(), payment))
	f.payments.payments[payment.ID].Status = models.PaymentStatusCompleted
	f.payments.completedCount = 2

	require.NoError(t, f.svc.Confirm(context.Background(), reg.ID))

	assert.Equal(t, models.RegistrationStatusConfirmed, f.store.regs[reg.ID].Status)
	assert.Equal(t, "evt-1", f.store.regs[reg.ID].CalendarEventID)
	require.Len(t, f.payments.invoiceNumbers, 1)
	assert.Equal(t, "INV-202603-0003", f.payments.invoiceNumbers[0])
	require.Len(t, f.mailer.confirmations, 1)
	assert.Equal(t, []byte("%PDF-fake"), f.mailer.confirmations[0].InvoicePDF)
}

func TestConfirmIsIdempotentForConfirmedRegistration(t *testing.T) {
	f := newFixture(activeWebinar(0))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusConfirmed}
	require.NoError(t, f.store.Create(context.Background(), reg))

	require.NoError(t, f.svc.Confirm(context.Background(), reg.ID))
	require.NoError(t, f.svc.Confirm(context.Background(), reg.ID))

	assert.Equal(t, 0, f.calendar.creates)
	assert.Empty(t, f.mailer.confirmations)
}

func TestConfirmFailsWhenCalendarFails(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.calendar.createErr = apperr.New(apperr.KindUpstream, "calendar down")

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), reg))

	err := f.svc.Confirm(context.Background(), reg.ID)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, models.RegistrationStatusPending, f.store.regs[reg.ID].Status)
	assert.Empty(t, f.mailer.confirmations)
}

func TestConfirmFailsWhenEmailFails(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.mailer.sendErr = errors.New("smtp down")

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), reg))

	err := f.svc.Confirm(context.Background(), reg.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "smtp down")
}

func TestCreateFreeWebinarFailsWhenEmailFails(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.mailer.sendErr = errors.New("smtp down")

	_, err := f.svc.Create(context.Background(), CreateInput{
		WebinarID: f.webinars.webinar.ID,
		Email:     "jean@example.com",
		Name:      "Jean Dupont",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "smtp down")
}

func TestConfirmFailsWhenInvoiceRenderFails(t *testing.T) {
	f := newFixture(activeWebinar(49.90))
	f.renderer.err = errors.New("pdf layout broken")

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), reg))
	payment := &models.Payment{RegistrationID: reg.ID, Amount: 49.90, Status: models.PaymentStatusCompleted}
	require.NoError(t, f.payments.Create(context.Background(), payment))
	f.payments.payments[payment.ID].Status = models.PaymentStatusCompleted

	err := f.svc.Confirm(context.Background(), reg.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "pdf layout broken")
	assert.Empty(t, f.payments.invoiceNumbers)
	assert.Empty(t, f.mailer.confirmations)
}

func TestConfirmDatesInvoiceFromPaymentDate(t *testing.T) {
	f := newFixture(activeWebinar(49.90))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusPending}
	require.NoError(t, f.store.Create(context.Background(), reg))
	// Payment settled in February; the clock has since rolled into March.
	paid := time.Date(2026, time.February, 27, 18, 30, 0, 0, time.UTC)
	payment := &models.Payment{RegistrationID: reg.ID, Amount: 49.90, Status: models.PaymentStatusCompleted, PaymentDate: &paid}
	require.NoError(t, f.payments.Create(context.Background(), payment))
	f.payments.payments[payment.ID].Status = models.PaymentStatusCompleted
	f.payments.payments[payment.ID].PaymentDate = &paid
	f.payments.completedCount = 4

	require.NoError(t, f.svc.Confirm(context.Background(), reg.ID))
	require.Len(t, f.payments.invoiceNumbers, 1)
	assert.Equal(t, "INV-202602-0005", f.payments.invoiceNumbers[0])
}

func TestCancelByOwnerDeletesCalendarEvent(t *testing.T) {
	f := newFixture(activeWebinar(0))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusConfirmed, CalendarEventID: "evt-1"}
	require.NoError(t, f.store.Create(context.Background(), reg))

	require.NoError(t, f.svc.Cancel(context.Background(), reg.ID, f.store.user.ID, false))
	assert.Equal(t, models.RegistrationStatusCancelled, f.store.regs[reg.ID].Status)
	assert.Equal(t, []string{"evt-1"}, f.calendar.deletes)
}

func TestCancelByStrangerIsForbidden(t *testing.T) {
	f := newFixture(activeWebinar(0))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusConfirmed}
	require.NoError(t, f.store.Create(context.Background(), reg))

	err := f.svc.Cancel(context.Background(), reg.ID, uuid.New(), false)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, models.RegistrationStatusConfirmed, f.store.regs[reg.ID].Status)
}

func TestCancelTwiceIsRejected(t *testing.T) {
	f := newFixture(activeWebinar(0))

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusCancelled}
	require.NoError(t, f.store.Create(context.Background(), reg))

	err := f.svc.Cancel(context.Background(), reg.ID, f.store.user.ID, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCancelSwallowsCalendarDeleteFailure(t *testing.T) {
	f := newFixture(activeWebinar(0))
	f.calendar.deleteErr = errors.New("calendar down")

	reg := &models.Registration{UserID: f.store.user.ID, WebinarID: f.webinars.webinar.ID, Status: models.RegistrationStatusConfirmed, CalendarEventID: "evt-1"}
	require.NoError(t, f.store.Create(context.Background(), reg))

	require.NoError(t, f.svc.Cancel(context.Background(), reg.ID, f.store.user.ID, false))
	assert.Equal(t, models.RegistrationStatusCancelled, f.store.regs[reg.ID].Status)
}
