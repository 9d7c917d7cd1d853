package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDateFR(t *testing.T) {
	// 14:00 UTC in winter is 15:00 in Paris.
	d := time.Date(2026, time.February, 3, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 février 2026 à 15:00", formatDateFR(d))
}

func TestConfirmationHTML(t *testing.T) {
	html := confirmationHTML(ConfirmationParams{
		UserName:     "Jean Dupont",
		WebinarTitle: "Go avancé",
		WebinarDate:  time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		MeetLink:     "https://meet.google.com/abc-defg-hij",
		InvoicePDF:   []byte("%PDF"),
	}, "1Side Technology")

	assert.Contains(t, html, "Jean Dupont")
	assert.Contains(t, html, "Go avanc")
	assert.Contains(t, html, "https://meet.google.com/abc-defg-hij")
	assert.Contains(t, html, "facture en pi")
	assert.Contains(t, html, "1Side Technology")
}

func TestConfirmationHTMLWithoutInvoice(t *testing.T) {
	html := confirmationHTML(ConfirmationParams{
		UserName:     "Jean Dupont",
		WebinarTitle: "Go avancé",
		WebinarDate:  time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		MeetLink:     "https://meet.google.com/abc-defg-hij",
	}, "1Side Technology")

	assert.NotContains(t, html, "facture")
}

func TestReminderHTML(t *testing.T) {
	html := reminderHTML(ReminderParams{
		UserName:     "Jean Dupont",
		WebinarTitle: "Go avancé",
		WebinarDate:  time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		MeetLink:     "https://meet.google.com/abc-defg-hij",
	}, "1Side Technology")

	assert.Contains(t, html, "commence demain")
	assert.Contains(t, html, "https://meet.google.com/abc-defg-hij")
}

func TestCancellationHTML(t *testing.T) {
	withReason := cancellationHTML(CancellationParams{
		UserName:     "Jean Dupont",
		WebinarTitle: "Go avancé",
		Reason:       "Intervenant indisponible",
	}, "1Side Technology")
	assert.Contains(t, withReason, "Intervenant indisponible")

	withoutReason := cancellationHTML(CancellationParams{
		UserName:     "Jean Dupont",
		WebinarTitle: "Go avancé",
	}, "1Side Technology")
	assert.NotContains(t, withoutReason, "Raison")
}
