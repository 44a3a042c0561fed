package mocks

import (
	"context"

	"github.com/you/moodsvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, name, email, phone, password string) (*domain.User, error)
	VerifyEmailFunc    func(ctx context.Context, email, token string) (*domain.AuthResult, error)
	LoginFunc          func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	LogoutFunc         func(ctx context.Context, sessionID string) error
	ForgotPasswordFunc func(ctx context.Context, email string) error
	ResetPasswordFunc  func(ctx context.Context, email, token, newPassword string) error
	GetUserProfileFunc func(ctx context.Context, userID uint) (*domain.User, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Register registers a user
func (m *MockAuthService) Register(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, phone, password)
	}
	// Default behavior: success
	return &domain.User{ID: 1, Name: name, Email: email, Phone: phone, Role: "user"}, nil
}

// VerifyEmail verifies an email address
func (m *MockAuthService) VerifyEmail(ctx context.Context, email, token string) (*domain.AuthResult, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, email, token)
	}
	// Default behavior: invalid token
	return nil, domain.ErrVerifyTokenInvalid
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	// Default behavior: invalid credentials
	return nil, domain.ErrInvalidCredentials
}

// RefreshToken refreshes an access token
func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	// Default behavior: invalid token
	return nil, domain.ErrTokenInvalid
}

// Logout ends a session
func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	// Default behavior: success
	return nil
}

// ForgotPassword starts password recovery
func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	// Default behavior: success
	return nil
}

// ResetPassword completes password recovery
func (m *MockAuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, token, newPassword)
	}
	// Default behavior: invalid token
	return domain.ErrResetTokenInvalid
}

// GetUserProfile loads a user profile
func (m *MockAuthService) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, userID)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}
