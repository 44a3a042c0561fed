package domain

import "time"

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Verification events
	EmailVerifiedEvent        AuditEventType = "EMAIL_VERIFIED"
	EmailVerifyFailureEvent   AuditEventType = "EMAIL_VERIFY_FAILED"
	PhoneActivationEvent      AuditEventType = "PHONE_ACTIVATED"
	PhoneOTPRequestEvent      AuditEventType = "PHONE_OTP_REQUESTED"
	PasswordResetEvent        AuditEventType = "PASSWORD_RESET"
	PasswordResetRequestEvent AuditEventType = "PASSWORD_RESET_REQUESTED"

	// Authentication events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"
	UserRegistrationEvent AuditEventType = "USER_REGISTERED"
	UserLogoutEvent       AuditEventType = "USER_LOGOUT"

	// Mood events
	MoodLoggedEvent AuditEventType = "MOOD_LOGGED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType `json:"event_type"`
	UserID    uint           `json:"user_id"`
	Email     string         `json:"email,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ErrorMsg  string         `json:"error_msg,omitempty"`
	Success   bool           `json:"success"`
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID uint) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// MoodLoggedPayload is the realtime payload broadcast to a user's room
// after one of their connections (or an HTTP call) logs a mood.
type MoodLoggedPayload struct {
	ID        uint      `json:"id"`
	Mood      string    `json:"mood"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
