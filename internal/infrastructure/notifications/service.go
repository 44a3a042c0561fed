package notifications

import "github.com/you/moodsvc/domain"

// ServiceImpl implements domain.NotificationService by delegating SMS to
// Twilio and email to the SMTP relay.
type ServiceImpl struct {
	sms  *TwilioSender
	mail *SMTPMailer
}

// NewService creates the combined notification service
func NewService(sms *TwilioSender, mail *SMTPMailer) domain.NotificationService {
	return &ServiceImpl{sms: sms, mail: mail}
}

// SendSMS implements domain.NotificationService
func (s *ServiceImpl) SendSMS(to, message string) error {
	return s.sms.SendSMS(to, message)
}

// SendEmail implements domain.NotificationService
func (s *ServiceImpl) SendEmail(to, subject, body string) error {
	return s.mail.SendEmail(to, subject, body)
}
