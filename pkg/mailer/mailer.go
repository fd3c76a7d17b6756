package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers msg. smtp.SendMail has no context, so ctx is only checked
// before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, buildMessage(m.cfg.From, msg)); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// Phase2LinkMessage is sent when an application is approved.
func Phase2LinkMessage(to, businessName, link string) Message {
	return Message{
		To:      to,
		Subject: "Continue setting up " + businessName,
		Body: fmt.Sprintf("Your application for %s was approved.\r\n\r\n"+
			"Finish setting up your business here:\r\n%s\r\n\r\n"+
			"This link expires soon and can only be used for onboarding.\r\n", businessName, link),
	}
}

// BookingStatusMessage tells a customer their booking changed status.
func BookingStatusMessage(to string, bookingID uint, status string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Booking #%d update", bookingID),
		Body:    fmt.Sprintf("Your booking #%d is now %s.\r\n", bookingID, strings.ReplaceAll(status, "_", " ")),
	}
}
