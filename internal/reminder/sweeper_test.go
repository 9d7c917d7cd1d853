package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1Sidetechnology/webinaire-backend/internal/mailer"
	"github.com/1Sidetechnology/webinaire-backend/internal/models"
)

type fakeStore struct {
	due      []models.RegistrationDetails
	from, to time.Time
	marked   []uuid.UUID
	markErr  map[uuid.UUID]error
}

func (f *fakeStore) DueForReminder(_ context.Context, from, to time.Time) ([]models.RegistrationDetails, error) {
	f.from, f.to = from, to
	return f.due, nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	if err := f.markErr[id]; err != nil {
		return err
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeMailer struct {
	sent    []mailer.ReminderParams
	failFor string
}

func (f *fakeMailer) SendWebinarReminder(_ context.Context, p mailer.ReminderParams) error {
	if f.failFor != "" && p.To == f.failFor {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, p)
	return nil
}

func due(email string) models.RegistrationDetails {
	return models.RegistrationDetails{
		Registration: models.Registration{
			ID:        uuid.New(),
			WebinarID: uuid.New(),
			Status:    models.RegistrationStatusConfirmed,
			MeetLink:  "https://meet.google.com/abc-defg-hij",
		},
		User:    models.User{Email: email, Name: "Jean"},
		Webinar: models.Webinar{Title: "Go avancé", StartDate: time.Date(2026, time.March, 11, 14, 0, 0, 0, time.UTC)},
	}
}

func newSweeper(store *fakeStore, m *fakeMailer, now time.Time) *Sweeper {
	s := NewSweeper(store, m, nil)
	s.now = func() time.Time { return now }
	return s
}

func TestSweepWindowIsTomorrow(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	s := newSweeper(store, &fakeMailer{}, now)

	require.NoError(t, s.Sweep(context.Background()))

	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), store.from)
	assert.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), store.to)
}

func TestSweepSendsAndMarks(t *testing.T) {
	d1, d2 := due("a@example.com"), due("b@example.com")
	store := &fakeStore{due: []models.RegistrationDetails{d1, d2}}
	m := &fakeMailer{}
	s := newSweeper(store, m, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Sweep(context.Background()))

	require.Len(t, m.sent, 2)
	assert.Equal(t, "a@example.com", m.sent[0].To)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", m.sent[0].MeetLink)
	assert.ElementsMatch(t, []uuid.UUID{d1.ID, d2.ID}, store.marked)
}

func TestSweepSkipsFailingRowAndContinues(t *testing.T) {
	d1, d2, d3 := due("a@example.com"), due("b@example.com"), due("c@example.com")
	store := &fakeStore{due: []models.RegistrationDetails{d1, d2, d3}}
	m := &fakeMailer{failFor: "b@example.com"}
	s := newSweeper(store, m, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Sweep(context.Background()))

	// The failed row is not marked, so the next sweep retries it.
	require.Len(t, m.sent, 2)
	assert.ElementsMatch(t, []uuid.UUID{d1.ID, d3.ID}, store.marked)
}

func TestSweepDoesNotMarkWhenMarkingFails(t *testing.T) {
	d1 := due("a@example.com")
	store := &fakeStore{
		due:     []models.RegistrationDetails{d1},
		markErr: map[uuid.UUID]error{d1.ID: errors.New("db down")},
	}
	m := &fakeMailer{}
	s := newSweeper(store, m, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Sweep(context.Background()))
	assert.Empty(t, store.marked)
}

func TestNextRunIsSameDayBeforeNine(t *testing.T) {
	s := newSweeper(&fakeStore{}, &fakeMailer{}, time.Date(2026, time.March, 10, 7, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC), s.nextRun())
}

func TestNextRunIsTomorrowAfterNine(t *testing.T) {
	s := newSweeper(&fakeStore{}, &fakeMailer{}, time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 11, 9, 0, 0, 0, time.UTC), s.nextRun())
}
