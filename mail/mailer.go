// Package mail delivers account verification email. The SMTP sender is
// the production transport; LogMailer stands in during development.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig locates the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTP sends verification mail over an authenticated SMTP relay.
type SMTP struct {
	config SMTPConfig
	addr   string
}

// NewSMTP validates cfg and returns the sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTP{
		config: cfg,
		addr:   net.JoinHostPort(cfg.Host, cfg.Port),
	}, nil
}

// SendVerification mails the verification link. The deadline on ctx bounds
// the whole exchange, dialing included.
func (s *SMTP) SendVerification(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("From: " + s.config.From + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: Verify your email address\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString("Welcome to Bike Rent!\r\n\r\n")
	builder.WriteString("Confirm your email address by opening the link below. ")
	builder.WriteString("The link expires in one hour.\r\n\r\n")
	builder.WriteString(link + "\r\n")

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, auth, s.config.From, []string{to}, []byte(builder.String()))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send verification mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer writes the verification link to the log instead of sending
// mail. Useful for local runs without an SMTP relay.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerification(_ context.Context, to, link string) error {
	m.log.Info("verification mail",
		zap.String("to", to),
		zap.String("link", link))
	return nil
}
