package infra

import (
	"fmt"
	"net/smtp"

	"distribuidora/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for operational alert e-mails.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	destino  string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		destino:  cfg.AlertasEmail,
	}
}

// Habilitado is false when no SMTP host or recipient is configured.
func (m *Mailer) Habilitado() bool {
	return m != nil && m.host != "" && m.destino != ""
}

// EnviarAlerta sends a plain-text alert to the configured recipient.
func (m *Mailer) EnviarAlerta(asunto, cuerpo string) error {
	if !m.Habilitado() {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.destino}
	e.Subject = asunto
	e.Text = []byte(cuerpo)

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
