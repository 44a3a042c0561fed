package domain

import "time"

// User represents an account in the credential store
type User struct {
	ID                   uint
	Name                 string
	Email                string
	Phone                string
	PasswordHash         string `gorm:"column:password"`
	Role                 string
	IsVerified           bool
	VerifyToken          string
	VerifyTokenExpiresAt time.Time
	ResetToken           string
	ResetTokenExpiresAt  time.Time
	PhoneVerified        bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MoodEntry represents one logged mood, always owned by a user
type MoodEntry struct {
	ID        uint
	UserID    uint
	Mood      string
	Note      string
	CreatedAt time.Time
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64
}

// OTPRequest represents OTP verification data
type OTPRequest struct {
	Phone     string
	Code      string
	UserID    uint
	ExpiresAt time.Time
	Attempts  int
}

// Session represents a user session
type Session struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
	CreatedAt time.Time
}
