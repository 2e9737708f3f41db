package mail

import (
	"context"
	"document-access/internal/config"
	"document-access/internal/domain/services"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Dialer delivers composed messages; *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	dialer Dialer
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

func NewMailerWithDialer(d Dialer) *SMTPMailer {
	return &SMTPMailer{dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *services.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := BuildMessage(msg)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.ToEmail, err)
	}
	return nil
}

// BuildMessage renders msg as a multipart/alternative mail with the plain
// text part first.
func BuildMessage(msg *services.Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	gm.SetAddressHeader("To", msg.ToEmail, msg.ToName)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm
}

var _ services.Mailer = (*SMTPMailer)(nil)
