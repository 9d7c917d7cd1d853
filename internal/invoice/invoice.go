// Package invoice renders fixed-layout A4 PDF invoices for webinar payments.
package invoice

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// CompanyInfo is the issuer identity printed on every invoice.
type CompanyInfo struct {
	Name    string
	Address string
	SIRET   string
	VAT     string
}

// Data describes one invoice: a single webinar line item paid in full.
type Data struct {
	Number          string
	Date            time.Time
	CustomerName    string
	CustomerEmail   string
	CustomerCompany string
	WebinarTitle    string
	WebinarDate     time.Time
	Amount          float64
	PaymentMethod   string
}

// Renderer produces invoice PDFs for a fixed issuer.
type Renderer struct {
	company CompanyInfo
}

// NewRenderer creates an invoice renderer.
func NewRenderer(company CompanyInfo) *Renderer {
	return &Renderer{company: company}
}

// Render builds the PDF document and returns its bytes. Pure function of its
// inputs; no I/O.
func (r *Renderer) Render(d Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "FACTURE", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr("N° "+d.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, "Date : "+d.Date.Format("02/01/2006"), "", 1, "R", false, 0, "")
	pdf.Ln(8)

	// Issuer
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, tr(r.company.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(r.company.Address), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "SIRET : "+r.company.SIRET, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "TVA : "+r.company.VAT, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	// Customer
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 5, tr("FACTURÉ À :"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(d.CustomerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, d.CustomerEmail, "", 1, "L", false, 0, "")
	if d.CustomerCompany != "" {
		pdf.CellFormat(0, 5, tr(d.CustomerCompany), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	// Line item table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(95, 7, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(34, 7, "Montant", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 7, tr(`Inscription au webinaire "`+d.WebinarTitle+`"`), "", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, d.WebinarDate.Format("02/01/2006 15:04"), "", 0, "L", false, 0, "")
	pdf.CellFormat(34, 7, tr(fmt.Sprintf("%.2f €", d.Amount)), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	// Total
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(140, 8, "TOTAL TTC", "T", 0, "R", false, 0, "")
	pdf.CellFormat(34, 8, tr(fmt.Sprintf("%.2f €", d.Amount)), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 6, "TVA non applicable, art. 293 B du CGI", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Mode de paiement : "+d.PaymentMethod, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr("Paiement reçu - Aucune action requise"), "", 1, "L", false, 0, "")

	// Footer
	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 4, "Cette facture est un document officiel. Merci de la conserver.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, tr(r.company.Name+" - "+r.company.Address), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 4, "SIRET : "+r.company.SIRET+" - TVA : "+r.company.VAT, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
