package domain

import "context"

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	ActivatePhone(ctx context.Context, userID uint) error

	// ConsumeVerifyToken atomically marks the user verified and clears the
	// verification token, but only if the stored token matches and has not
	// expired. Returns ErrVerifyTokenInvalid when no row qualifies.
	ConsumeVerifyToken(ctx context.Context, email, token string) (*User, error)

	// ConsumeResetToken atomically replaces the password hash and clears the
	// reset token under the same match-and-unexpired condition.
	ConsumeResetToken(ctx context.Context, email, token, passwordHash string) (*User, error)
}

// MoodRepository defines mood entry data access operations
type MoodRepository interface {
	Create(ctx context.Context, entry *MoodEntry) error
	ListByUser(ctx context.Context, userID uint) ([]*MoodEntry, error)
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, name, email, phone, password string) (*User, error)
	VerifyEmail(ctx context.Context, email, token string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
}

// MoodService defines mood logging business logic
type MoodService interface {
	Log(ctx context.Context, userID uint, mood, note string) (*MoodEntry, error)
	History(ctx context.Context, userID uint) ([]*MoodEntry, error)
}

// OTPService defines OTP operations
type OTPService interface {
	Generate(ctx context.Context, phone string, userID uint) (*OTPRequest, error)
	Verify(ctx context.Context, phone, code string, userID uint) (bool, error)
	CanResend(ctx context.Context, phone string) (bool, int64, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID uint, role string, sessionID string) (string, error)
	GenerateRefreshToken(userID uint, role string, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// Publisher delivers server-initiated events to all live connections of a
// user. Implementations must not block the caller on slow consumers.
type Publisher interface {
	Broadcast(userID uint, event string, payload any)
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
