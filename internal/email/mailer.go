// Package email sends password-reset mail over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"moodadmin/api/internal/config"
)

type Mailer struct {
	cfg    config.SMTPConfig
	server string
	auth   smtp.Auth
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Mailer{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

// SendPasswordReset dispatches the reset link. Failures surface verbatim;
// the caller decides how to present them.
func (m *Mailer) SendPasswordReset(to string, token string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	link := strings.TrimSuffix(m.cfg.ResetURL, "/") + "?token=" + token
	body := fmt.Sprintf(
		"A password reset was requested for your admin account.\r\n\r\n"+
			"Reset link: %s\r\n\r\n"+
			"If you did not request this, ignore this message.\r\n", link)

	return m.send([]string{to}, "Password reset", body)
}

func (m *Mailer) send(to []string, subject, body string) error {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))

	return smtp.SendMail(m.server, m.auth, m.cfg.From, to, msg)
}
