package notifications

import (
	"crypto/tls"
	"fmt"
	"log"

	"github.com/dajohi/goemail"
)

// SMTPMailer sends mail from a preset address through an SMTP relay.
type SMTPMailer struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
}

// NewSMTPMailer creates a mailer from an smtps:// URL. An empty host leaves
// the mailer disabled; messages are logged instead of sent, which keeps
// local development working without a relay.
func NewSMTPMailer(host, mailName, mailAddress string, skipVerify bool) (*SMTPMailer, error) {
	if host == "" {
		return &SMTPMailer{disabled: true, mailName: mailName, mailAddress: mailAddress}, nil
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify,
	}
	smtp, err := goemail.NewSMTP(host, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to init smtp client: %w", err)
	}

	return &SMTPMailer{
		smtp:        smtp,
		mailName:    mailName,
		mailAddress: mailAddress,
	}, nil
}

// SendEmail delivers a plain-text email to a single recipient.
func (m *SMTPMailer) SendEmail(to, subject, body string) error {
	if m.disabled {
		log.Printf("[MOCK EMAIL] To: %s, Subject: %s, Body: %s", to, subject, body)
		return nil
	}

	msg := goemail.NewMessage(m.mailAddress, subject, body)
	msg.SetName(m.mailName)
	msg.AddTo(to)

	return m.smtp.Send(msg)
}
