package mailer

import (
	"bytes"
	"html/template"
	"time"
)

// Emails mirror the French-language notices sent to registrants.

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var parisLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// formatDateFR renders "2 janvier 2026 à 15:04" in the operator timezone.
func formatDateFR(t time.Time) string {
	t = t.In(parisLocation)
	return template.HTMLEscapeString(
		t.Format("2") + " " + frMonths[t.Month()-1] + " " + t.Format("2006") + " à " + t.Format("15:04"))
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #4CAF50; color: white; padding: 20px; text-align: center;">
      <h1>Inscription confirmée !</h1>
    </div>
    <div style="padding: 20px; background: #f9f9f9;">
      <p>Bonjour {{.UserName}},</p>
      <p>Votre inscription au webinaire <strong>"{{.WebinarTitle}}"</strong> a été confirmée avec succès.</p>
      <p><strong>Date :</strong> {{.FormattedDate}}</p>
      <p><strong>Lien Google Meet :</strong><br>
      <a href="{{.MeetLink}}">{{.MeetLink}}</a></p>
      <p>Vous recevrez un rappel par email 24h avant le début du webinaire.</p>
      {{if .HasInvoice}}<p>Vous trouverez votre facture en pièce jointe.</p>{{end}}
      <p>À bientôt !<br>L'équipe {{.CompanyName}}</p>
    </div>
  </div>
</body>
</html>`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #FF9800; color: white; padding: 20px; text-align: center;">
      <h1>Rappel : votre webinaire commence demain !</h1>
    </div>
    <div style="padding: 20px; background: #f9f9f9;">
      <p>Bonjour {{.UserName}},</p>
      <p><strong>Le webinaire "{{.WebinarTitle}}" commence demain !</strong></p>
      <p><strong>Date :</strong> {{.FormattedDate}}</p>
      <p>N'oubliez pas de vous connecter quelques minutes à l'avance.</p>
      <p><strong>Lien Google Meet :</strong><br>
      <a href="{{.MeetLink}}">{{.MeetLink}}</a></p>
      <p>À très bientôt !<br>L'équipe {{.CompanyName}}</p>
    </div>
  </div>
</body>
</html>`))

var cancellationTmpl = template.Must(template.New("cancellation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #f44336; color: white; padding: 20px; text-align: center;">
      <h1>Annulation de webinaire</h1>
    </div>
    <div style="padding: 20px; background: #f9f9f9;">
      <p>Bonjour {{.UserName}},</p>
      <p>Nous sommes au regret de vous informer que le webinaire <strong>"{{.WebinarTitle}}"</strong> a été annulé.</p>
      {{if .Reason}}<p><strong>Raison :</strong> {{.Reason}}</p>{{end}}
      <p>Nous vous contacterons prochainement pour vous proposer une nouvelle date ou un remboursement.</p>
      <p>Cordialement,<br>L'équipe {{.CompanyName}}</p>
    </div>
  </div>
</body>
</html>`))

func confirmationHTML(p ConfirmationParams, companyName string) string {
	return render(confirmationTmpl, map[string]interface{}{
		"UserName":      p.UserName,
		"WebinarTitle":  p.WebinarTitle,
		"FormattedDate": template.HTML(formatDateFR(p.WebinarDate)),
		"MeetLink":      p.MeetLink,
		"HasInvoice":    len(p.InvoicePDF) > 0,
		"CompanyName":   companyName,
	})
}

func reminderHTML(p ReminderParams, companyName string) string {
	return render(reminderTmpl, map[string]interface{}{
		"UserName":      p.UserName,
		"WebinarTitle":  p.WebinarTitle,
		"FormattedDate": template.HTML(formatDateFR(p.WebinarDate)),
		"MeetLink":      p.MeetLink,
		"CompanyName":   companyName,
	})
}

func cancellationHTML(p CancellationParams, companyName string) string {
	return render(cancellationTmpl, map[string]interface{}{
		"UserName":     p.UserName,
		"WebinarTitle": p.WebinarTitle,
		"Reason":       p.Reason,
		"CompanyName":  companyName,
	})
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
