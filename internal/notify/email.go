package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Server     string
	Port       int
	UseTLS     bool
	Username   string
	Password   string
	From       string
	Recipients []string
}

// emailChannel delivers alerts over SMTP.
type emailChannel struct {
	cfg EmailConfig
	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates an SMTP-backed channel.
func NewEmailChannel(cfg EmailConfig) Channel {
	return &emailChannel{cfg: cfg, send: smtp.SendMail}
}

func (e *emailChannel) Name() string { return "email" }

func (e *emailChannel) Send(ctx context.Context, alert *Alert) error {
	if len(e.cfg.Recipients) == 0 {
		return fmt.Errorf("email channel has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Server)
	}

	msg := e.buildMessage(alert)
	if err := e.send(addr, auth, e.cfg.From, e.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("send email via %s: %w", addr, err)
	}
	return nil
}

func (e *emailChannel) buildMessage(alert *Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: [statuswatch/%s] %s\r\n", alert.Severity, alert.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	b.WriteString(alert.Message)
	b.WriteString("\r\n")
	if alert.Service != "" {
		fmt.Fprintf(&b, "\r\nService: %s", alert.Service)
	}
	if alert.Metric != "" {
		fmt.Fprintf(&b, "\r\nMetric: %s", alert.Metric)
	}
	for k, v := range alert.Details {
		fmt.Fprintf(&b, "\r\n%s: %s", k, v)
	}
	fmt.Fprintf(&b, "\r\n\r\nAlert ID: %s\r\nRaised at: %s\r\n",
		alert.ID, alert.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return []byte(b.String())
}
