package notify

import (
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"plate-watch/internal/config"
)

// SMTPMailer delivers alert emails through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

func NewSMTPMailer(cfg config.EmailConfig, log zerolog.Logger) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
		log:    log,
	}
}

// Send delivers one message to the recipient set. Delivery is synchronous;
// the caller records the outcome in the alert audit trail.
func (m *SMTPMailer) Send(recipients []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error().Err(err).Strs("recipients", recipients).Msg("failed to send alert email")
		return err
	}
	return nil
}
