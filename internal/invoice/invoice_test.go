package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer(CompanyInfo{
		Name:    "1Side Technology",
		Address: "10 rue de la Paix, 75002 Paris",
		SIRET:   "123 456 789 00010",
		VAT:     "FR12345678900",
	})

	pdf, err := r.Render(Data{
		Number:        "INV-202603-0001",
		Date:          time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		CustomerName:  "Jean Dupont",
		CustomerEmail: "jean@example.com",
		WebinarTitle:  "Go avancé",
		WebinarDate:   time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		Amount:        49.90,
		PaymentMethod: "Carte bancaire (SumUp)",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderWithoutCompanyField(t *testing.T) {
	r := NewRenderer(CompanyInfo{Name: "1Side Technology"})
	pdf, err := r.Render(Data{
		Number:        "INV-202603-0002",
		Date:          time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		CustomerName:  "Jean Dupont",
		CustomerEmail: "jean@example.com",
		WebinarTitle:  "Go avancé",
		WebinarDate:   time.Date(2026, time.April, 2, 14, 0, 0, 0, time.UTC),
		Amount:        0,
		PaymentMethod: "Gratuit",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}
