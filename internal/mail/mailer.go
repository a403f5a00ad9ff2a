package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer dispatches outbound mail. The transport is an external
// collaborator; everything behind this interface is replaceable.
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// SendPasswordReset sends the recovery link to a user.
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	body := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: Recuperación de contraseña - Contabilidad App\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"<h2>Recuperación de contraseña</h2>"+
		"<p>Has solicitado restablecer tu contraseña.</p>"+
		"<p>Haz clic en el siguiente enlace para crear una nueva contraseña:</p>"+
		`<a href="%s">Restablecer contraseña</a>`+
		"<p>Este enlace expirará en 1 hora.</p>"+
		"<p>Si no solicitaste este cambio, ignora este email.</p>\r\n",
		m.from, to, resetURL)

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	addr := m.host + ":" + m.port
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(body))
}

// LogMailer is used when no SMTP relay is configured; it logs instead
// of sending, which keeps local development working without secrets.
type LogMailer struct{}

// SendPasswordReset logs the reset link.
func (LogMailer) SendPasswordReset(to, resetURL string) error {
	log.Printf("[mail] password reset for %s: %s", to, resetURL)
	return nil
}
