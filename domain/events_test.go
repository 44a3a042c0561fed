package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAuditEventTypeTags(t *testing.T) {
	// The constants double as the log line tags; a changed string silently
	// breaks log-based alerting, so the values are pinned here.
	tests := []struct {
		eventType AuditEventType
		tag       string
	}{
		{EmailVerifiedEvent, "EMAIL_VERIFIED"},
		{EmailVerifyFailureEvent, "EMAIL_VERIFY_FAILED"},
		{PhoneActivationEvent, "PHONE_ACTIVATED"},
		{PhoneOTPRequestEvent, "PHONE_OTP_REQUESTED"},
		{PasswordResetEvent, "PASSWORD_RESET"},
		{PasswordResetRequestEvent, "PASSWORD_RESET_REQUESTED"},
		{UserLoginEvent, "USER_LOGIN"},
		{UserLoginFailureEvent, "USER_LOGIN_FAILED"},
		{UserRegistrationEvent, "USER_REGISTERED"},
		{UserLogoutEvent, "USER_LOGOUT"},
		{MoodLoggedEvent, "MOOD_LOGGED"},
	}

	seen := make(map[string]AuditEventType)
	for _, tt := range tests {
		if string(tt.eventType) != tt.tag {
			t.Errorf("expected tag %q, got %q", tt.tag, tt.eventType)
		}
		if prev, ok := seen[tt.tag]; ok {
			t.Errorf("tag %q reused by %v", tt.tag, prev)
		}
		seen[tt.tag] = tt.eventType
	}
}

func TestNewAuditEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewAuditEvent(UserLoginEvent, 42)
	after := time.Now().UTC()

	if event.EventType != UserLoginEvent {
		t.Errorf("expected %v, got %v", UserLoginEvent, event.EventType)
	}
	if event.UserID != 42 {
		t.Errorf("expected user 42, got %d", event.UserID)
	}
	if !event.Success {
		t.Error("expected a new event to default to success")
	}
	if event.Timestamp.Before(before) || event.Timestamp.After(after) {
		t.Errorf("timestamp %v outside [%v, %v]", event.Timestamp, before, after)
	}
	if event.Timestamp.Location() != time.UTC {
		t.Error("expected UTC timestamp")
	}
}

func TestAuditEventWithError(t *testing.T) {
	event := NewAuditEvent(UserLoginFailureEvent, 7).WithError(errors.New("bad password"))

	if event.Success {
		t.Error("expected WithError to mark the event failed")
	}
	if event.ErrorMsg != "bad password" {
		t.Errorf("unexpected error message %q", event.ErrorMsg)
	}

	// A nil error still marks failure but records no message
	event = NewAuditEvent(UserLoginFailureEvent, 7).WithError(nil)
	if event.Success {
		t.Error("expected WithError(nil) to mark the event failed")
	}
	if event.ErrorMsg != "" {
		t.Errorf("expected empty error message, got %q", event.ErrorMsg)
	}
}

func TestAuditEventWithEmail(t *testing.T) {
	event := NewAuditEvent(UserRegistrationEvent, 0).
		WithEmail("a@x.com").
		WithError(ErrUserAlreadyExists)

	if event.Email != "a@x.com" {
		t.Errorf("unexpected email %q", event.Email)
	}
	if event.Success || event.ErrorMsg != ErrUserAlreadyExists.Error() {
		t.Errorf("unexpected event state: %+v", event)
	}
}
