// Package mail sends HTML messages with file attachments through SMTP or
// Amazon SES.
package mail

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gomail/gomail"
)

var (
	// ErrNoRecipients is returned when a message has no To address.
	ErrNoRecipients = errors.New("mail: no recipients specified")
	// ErrUnknownProvider is returned by New for an unsupported provider.
	ErrUnknownProvider = errors.New("mail: unknown provider")
)

// Message is one outgoing email.
type Message struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTMLBody    string       `json:"html_body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file attached by path. Name overrides the file name the
// recipient sees.
type Attachment struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// From identifies the sender of every message.
type From struct {
	Address string
	Name    string
}

// build renders msg as a gomail message.
func build(from From, msg *Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	if from.Name != "" {
		m.SetAddressHeader("From", from.Address, from.Name)
	} else {
		m.SetHeader("From", from.Address)
	}
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		name := a.Name
		if name == "" {
			name = filepath.Base(a.Path)
		}
		m.Attach(a.Path, gomail.Rename(name))
	}
	return m, nil
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	From     From
	SMTP     SMTPConfig
	SES      SESConfig
}

// Provider names accepted by New.
const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

// New returns the sender named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Sender, error) {
	switch cfg.Provider {
	case ProviderSMTP:
		return NewSMTPSender(cfg.SMTP, cfg.From), nil
	case ProviderSES:
		return NewSESSender(ctx, cfg.SES, cfg.From)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
