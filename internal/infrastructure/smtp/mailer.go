package smtp

import (
	"context"

	"github.com/regportal-api/internal/domain"
	"gopkg.in/gomail.v2"
)

// Mailer delivers email over SMTP. Used against a local catcher (MailHog,
// Mailpit) in development.
type Mailer struct {
	dialer *gomail.Dialer
}

func NewMailer(host string, port int, username, password string) *Mailer {
	return &Mailer{dialer: gomail.NewDialer(host, port, username, password)}
}

// Send dials per message. gomail has no context support, so ctx is only
// checked before dialing.
func (m *Mailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", msg.From, msg.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return m.dialer.DialAndSend(gm)
}
