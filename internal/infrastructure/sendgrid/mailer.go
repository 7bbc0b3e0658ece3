package sendgrid

import (
	"context"
	"errors"
	"fmt"

	"github.com/regportal-api/internal/domain"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers transactional email through the SendGrid v3 API.
type Mailer struct {
	client  *sg.Client
	sandbox bool
}

// NewMailer builds a SendGrid mailer. In sandbox mode SendGrid validates the
// request but delivers nothing.
func NewMailer(apiKey string, sandbox bool) (*Mailer, error) {
	if apiKey == "" {
		return nil, errors.New("missing SENDGRID_API_KEY")
	}
	return &Mailer{client: sg.NewSendClient(apiKey), sandbox: sandbox}, nil
}

func (m *Mailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
