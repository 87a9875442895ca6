package notify

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

// MailConfig holds the SMTP settings.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Dialer sends prepared messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers notifications by e-mail.
type Mailer struct {
	from   string
	dialer Dialer
}

// NewMailer returns nil when no SMTP host is configured.
func NewMailer(cfg MailConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewMailerWithDialer is used by tests.
func NewMailerWithDialer(from string, d Dialer) *Mailer {
	return &Mailer{from: from, dialer: d}
}

func (m *Mailer) Notify(ctx context.Context, msg Message) error {
	if m == nil || msg.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.Email)
	mail.SetHeader("Subject", msg.Title)
	mail.SetBody("text/plain", msg.Body)
	mail.AddAlternative("text/html", fmt.Sprintf(
		`<div style="font-family:sans-serif"><h2>%s</h2><p>%s</p><p style="color:#999">모아모아</p></div>`,
		html.EscapeString(msg.Title), html.EscapeString(msg.Body)))

	if err := m.dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.Email, err)
	}
	return nil
}
