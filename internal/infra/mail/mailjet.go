package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"sosiego-api/internal/pkg/config"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"

	mailjet "github.com/mailjet/mailjet-apiv3-go/v4"
)

// Guest-facing mail is in Spanish; the property serves the Argentine market.
var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: #2c5530; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">¡Reserva Confirmada!</h1>
    <p style="margin: 8px 0 0;">{{.PropertyName}}</p>
  </div>
  <div style="padding: 30px;">
    <p>Hola {{.GuestName}},</p>
    <p>Tu pago fue acreditado y tu reserva está confirmada.</p>
    <div style="background: #f4f4f4; padding: 20px; border-radius: 8px;">
      <p style="font-size: 20px; margin: 0;">Código de confirmación</p>
      <p style="font-size: 28px; font-weight: bold; margin: 8px 0 0;">{{.ConfirmationCode}}</p>
    </div>
    <table style="width: 100%; margin-top: 20px;">
      <tr><td>Check-in</td><td style="text-align: right;">{{.CheckIn}}</td></tr>
      <tr><td>Check-out</td><td style="text-align: right;">{{.CheckOut}}</td></tr>
      <tr><td>Noches</td><td style="text-align: right;">{{.Nights}}</td></tr>
      <tr><td>Huéspedes</td><td style="text-align: right;">{{.Guests}}</td></tr>
      <tr><td>Total</td><td style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
    </table>
    <p style="margin-top: 30px;">Presentá este código al llegar. ¡Te esperamos!</p>
  </div>
</body>
</html>`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: #8a6d3b; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">Tu reserva está por vencer</h1>
    <p style="margin: 8px 0 0;">{{.PropertyName}}</p>
  </div>
  <div style="padding: 30px;">
    <p>Hola {{.GuestName}},</p>
    <p>Tu reserva {{.ConfirmationCode}} todavía no tiene el pago acreditado.
       Completá el pago de {{.Total}} para asegurar tus fechas; de lo contrario
       la reserva se cancelará automáticamente.</p>
  </div>
</body>
</html>`))

type MailjetSender struct {
	client       *mailjet.Client
	fromAddress  string
	fromName     string
	propertyName string
}

func NewMailjetSender(cfg config.EmailConfig, propertyName string) *MailjetSender {
	client := mailjet.NewMailjetClient(cfg.APIKeyPublic, cfg.APIKeyPrivate, cfg.BaseURL)
	// The webhook path sends mail after commit; a hung Mailjet connection must
	// not pin that goroutine, so the transport carries a hard deadline.
	client.SetClient(&http.Client{Timeout: cfg.Timeout})
	return &MailjetSender{
		client:       client,
		fromAddress:  cfg.FromAddress,
		fromName:     cfg.FromName,
		propertyName: propertyName,
	}
}

func (s *MailjetSender) SendReservationConfirmed(ctx context.Context, data commands.ConfirmationEmail) error {
	body, err := render(confirmationTmpl, map[string]any{
		"PropertyName":     s.propertyName,
		"GuestName":        data.GuestName,
		"ConfirmationCode": data.ConfirmationCode,
		"CheckIn":          data.CheckIn,
		"CheckOut":         data.CheckOut,
		"Nights":           data.Nights,
		"Guests":           data.Guests,
		"Total":            formatARS(data.TotalCents),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Confirmación de Reserva #%s - %s", data.ConfirmationCode, s.propertyName)
	return s.send(ctx, data.To, data.GuestName, subject, body)
}

func (s *MailjetSender) SendPaymentReminder(ctx context.Context, data commands.ReminderEmail) error {
	body, err := render(reminderTmpl, map[string]any{
		"PropertyName":     s.propertyName,
		"GuestName":        data.GuestName,
		"ConfirmationCode": data.ConfirmationCode,
		"Total":            formatARS(data.TotalCents),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Recordatorio de pago - Reserva #%s", data.ConfirmationCode)
	return s.send(ctx, data.To, data.GuestName, subject, body)
}

func (s *MailjetSender) send(ctx context.Context, toAddress, toName, subject, htmlBody string) error {
	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{{
			From: &mailjet.RecipientV31{
				Email: s.fromAddress,
				Name:  s.fromName,
			},
			To: &mailjet.RecipientsV31{
				{Email: toAddress, Name: toName},
			},
			Subject:  subject,
			HTMLPart: htmlBody,
		}},
	}

	if _, err := s.client.SendMailV31(&messages, mailjet.WithContext(ctx)); err != nil {
		return errs.Wrap(err, "failed to send email")
	}
	return nil
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errs.Wrap(err, "failed to render email template")
	}
	return buf.String(), nil
}

// formatARS renders cents as Argentine pesos with a thousands separator.
func formatARS(cents int64) string {
	units := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", units)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}
	return fmt.Sprintf("$%s,%02d ARS", grouped, frac)
}
