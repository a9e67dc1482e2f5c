// Package mailer sends transactional email. Delivery is best effort: callers log failures and
// carry on.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/logger"

	"go.uber.org/zap"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender, or a NopSender when no host is configured.
func New(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		logger.Named("mailer").Warn("SMTP host not configured, email disabled")
		return NopSender{}
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// SMTPSender delivers mail through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Send delivers msg. The context is checked before dialing; net/smtp has no cancellation.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("mailer: empty recipient")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{msg.To}, build(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}

func build(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// NopSender drops messages after logging them at debug level.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(_ context.Context, msg Message) error {
	logger.Named("mailer").Debug("Email skipped",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
