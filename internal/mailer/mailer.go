package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"

	"gopkg.in/gomail.v2"

	"github.com/vadim/automarketer/internal/httpx/upstream/brevo"
)

// SMTPConfig holds SMTP server settings
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromEmail   string
	InsecureTLS bool
}

// SMTP sends HTML mail through an SMTP relay, one message per call
type SMTP struct {
	from string
	send func(msg *gomail.Message) error
}

// NewSMTP creates an SMTP mailer
func NewSMTP(cfg SMTPConfig) *SMTP {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureTLS {
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &SMTP{
		from: formatAddress(cfg.FromName, cfg.FromEmail),
		send: func(msg *gomail.Message) error { return dialer.DialAndSend(msg) },
	}
}

// Send delivers one HTML email
func (m *SMTP) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.send(msg); err != nil {
		return classifySMTP(err)
	}
	return nil
}

// SMTPError wraps a server reply. 4xx replies are temporary.
type SMTPError struct {
	Code int
	Err  error
}

func (e *SMTPError) Error() string {
	return fmt.Sprintf("smtp error (code %d): %v", e.Code, e.Err)
}

func (e *SMTPError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the relay asked to retry later
func (e *SMTPError) Temporary() bool {
	return e.Code >= 400 && e.Code < 500
}

func classifySMTP(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &SMTPError{Code: tpErr.Code, Err: err}
	}
	return fmt.Errorf("sending email: %w", err)
}

func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Brevo adapts the Brevo transactional API to the mailer contract
type Brevo struct {
	client *brevo.Client
}

// NewBrevo creates a Brevo-backed mailer
func NewBrevo(client *brevo.Client) *Brevo {
	return &Brevo{client: client}
}

// Send delivers one HTML email
func (m *Brevo) Send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.Send(ctx, to, subject, html)
	return err
}
