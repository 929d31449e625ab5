// Package mailer sends acknowledgement emails over authenticated SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	leadform "github.com/phbpx/leadform"
	"github.com/wneessen/go-mail"
)

const (
	DefaultHost = "smtp.gmail.com"
	DefaultPort = 587

	// Subject of every acknowledgement email.
	Subject = "Thanks for reaching out!"

	signature = "Best regards,\nYour Business Name\n555-1234\nyourwebsite.com"
)

// Config is the required properties to reach the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From defaults to Username.
	From string

	// Timeout bounds dialing and each SMTP command. Zero keeps the client default.
	Timeout time.Duration

	// TLSConfig overrides the STARTTLS configuration, e.g. for a private CA.
	TLSConfig *tls.Config
}

// SMTP implements leadform.Mailer. It opens a new session for every message.
type SMTP struct {
	cfg Config
}

// New creates an SMTP mailer.
func New(cfg Config) *SMTP {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTP{cfg: cfg}
}

// Body renders the email body around the acknowledgement text.
func Body(text string) string {
	return text + "\n\n" + signature
}

// Send dials the relay, upgrades to TLS, authenticates and delivers ack. The
// session is closed before Send returns.
func (s *SMTP) Send(ctx context.Context, ack leadform.Acknowledgement) (err error) {
	msg, err := s.message(ack)
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	// Dial runs EHLO, STARTTLS and AUTH itself and keeps the connection open
	// when one of them fails, so Close is deferred before the error check.
	dialErr := client.DialWithContext(ctx)
	defer func() {
		if cerr := client.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("smtp close: %w", cerr)
		}
	}()
	if dialErr != nil {
		return fmt.Errorf("smtp dial %s:%d: %w", s.cfg.Host, s.cfg.Port, dialErr)
	}

	if err := client.Send(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", ack.To, err)
	}
	return nil
}

func (s *SMTP) message(ack leadform.Acknowledgement) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := m.To(ack.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", ack.To, err)
	}
	m.Subject(Subject)
	m.SetBodyString(mail.TypeTextPlain, Body(ack.Text))
	return m, nil
}

func (s *SMTP) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(s.cfg.TLSConfig))
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return c, nil
}
