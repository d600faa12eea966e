// Package mail delivers transactional email.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

// Message is a plain-text email
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

func (m *Message) validate() error {
	if m.From == "" || len(m.To) == 0 {
		return errors.New("message needs a sender and at least one recipient")
	}
	return nil
}

// Mailer sends messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig configures the SMTP backend
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool // STARTTLS
	UseSSL   bool // implicit TLS
	Timeout  time.Duration
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *logger.Logger
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg SMTPConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log.WithComponent("smtp-mailer")}
}

// Send delivers msg. Failures wrap domain.ErrEmailDelivery.
func (s *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	m, err := buildMsg(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("Failed to send email", "to", strings.Join(msg.To, ","), "error", err)
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	s.logger.Info("Sent email", "to", strings.Join(msg.To, ","), "subject", msg.Subject)
	return nil
}

func (s *SMTPMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(s.cfg.Port)}

	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}

	switch {
	case s.cfg.UseSSL:
		opts = append(opts, gomail.WithSSL())
	case s.cfg.UseTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func buildMsg(msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

// ConsoleMailer logs messages instead of sending them
type ConsoleMailer struct {
	logger *logger.Logger
}

// NewConsoleMailer creates a console mailer
func NewConsoleMailer(log *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: log.WithComponent("console-mailer")}
}

// Send writes msg to the log
func (c *ConsoleMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}
	if _, err := buildMsg(msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	c.logger.Info("Email",
		"from", msg.From,
		"to", strings.Join(msg.To, ","),
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
