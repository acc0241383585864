package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/go-gomail/gomail"
)

// SMTPConfig configures the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// SSL dials with implicit TLS (port 465). Otherwise STARTTLS is used
	// whenever the server offers it.
	SSL bool
	// InsecureSkipVerify disables certificate checks, for local relays only.
	InsecureSkipVerify bool
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	from   From
	dialer dialer
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig, from From) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: true} // #nosec G402 -- opt-in for local relays
	}
	return &SMTPSender{from: from, dialer: d}
}

// Send delivers msg. The relay round trip itself is not interruptible; ctx is
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m, err := build(s.from, msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
