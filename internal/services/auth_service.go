package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/you/moodsvc/domain"
)

// AuthConfig carries the auth flow knobs that do not belong to the token
// service itself.
type AuthConfig struct {
	AccessTTL      time.Duration
	SessionTTL     time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	PublicURL      string
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo        domain.UserRepository
	sessionRepo     domain.SessionRepository
	passwordSvc     domain.PasswordService
	tokenSvc        domain.TokenService
	otpSvc          domain.OTPService
	notificationSvc domain.NotificationService
	config          AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	notificationSvc domain.NotificationService,
	config AuthConfig,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		passwordSvc:     passwordSvc,
		tokenSvc:        tokenSvc,
		otpSvc:          otpSvc,
		notificationSvc: notificationSvc,
		config:          config,
	}
}

// NormalizeEmail lowercases and trims an email address so that lookups and
// the unique constraint agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
	email = NormalizeEmail(email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existingUser != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:                 name,
		Email:                email,
		Phone:                phone,
		PasswordHash:         hashedPassword,
		Role:                 "user",
		IsVerified:           false,
		VerifyToken:          uuid.NewString(),
		VerifyTokenExpiresAt: time.Now().Add(s.config.VerifyTokenTTL),
	}

	// The unique index still backstops this; the FindByEmail above only
	// narrows the race window.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == domain.ErrUserAlreadyExists {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendVerificationEmail(user); err != nil {
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	if phone != "" {
		if _, err := s.otpSvc.Generate(ctx, phone, user.ID); err != nil {
			log.Printf("OTP_SEND_FAILED: user_id=%d error=%v", user.ID, err)
		}
	}

	log.Printf("%s: user_id=%d email=%s", domain.UserRegistrationEvent, user.ID, user.Email)
	return user, nil
}

func (s *AuthServiceImpl) sendVerificationEmail(user *domain.User) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s&email=%s",
		s.config.PublicURL, user.VerifyToken, user.Email)
	body := fmt.Sprintf("Hi %s,\n\nPlease verify your email address by visiting:\n\n%s\n\nThe link expires in %s.",
		user.Name, link, s.config.VerifyTokenTTL)
	return s.notificationSvc.SendEmail(user.Email, "Verify your email address", body)
}

// VerifyEmail implements domain.AuthService. Consumption is a single
// conditional update in the store; a replayed or expired token finds no
// matching row and fails without revealing which condition missed.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, email, token string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.ConsumeVerifyToken(ctx, email, token)
	if err != nil {
		if err == domain.ErrVerifyTokenInvalid {
			log.Printf("%s: email=%s", domain.EmailVerifyFailureEvent, email)
			return nil, err
		}
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}

	result, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("%s: user_id=%d email=%s", domain.EmailVerifiedEvent, user.ID, user.Email)
	return result, nil
}

// Login implements domain.AuthService. Unknown email and wrong password
// take different branches but surface the identical sentinel, so the two
// are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Printf("%s: email=%s reason=lookup", domain.UserLoginFailureEvent, email)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		log.Printf("%s: user_id=%d reason=password", domain.UserLoginFailureEvent, user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("%s: user_id=%d email=%s session_id=%s", domain.UserLoginEvent, user.ID, user.Email, result.SessionID)
	return result, nil
}

func (s *AuthServiceImpl) createSession(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.SessionTTL),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenSvc.GenerateRefreshToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// RefreshToken implements domain.AuthService
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	if session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// Logout implements domain.AuthService. Only the server-side session is
// revoked; a token already cached elsewhere stays cryptographically valid
// until it expires.
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("%s: session_id=%s", domain.UserLogoutEvent, sessionID)
	return nil
}

// ForgotPassword implements domain.AuthService. An unknown email is not an
// error: the caller always gets the same generic acknowledgement.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			log.Printf("%s: email=%s known=false", domain.PasswordResetRequestEvent, email)
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	user.ResetToken = uuid.NewString()
	user.ResetTokenExpiresAt = time.Now().Add(s.config.ResetTokenTTL)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		s.config.PublicURL, user.ResetToken, user.Email)
	body := fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Visit:\n\n%s\n\nThe link expires in %s. If you did not request this, ignore this message.",
		user.Name, link, s.config.ResetTokenTTL)
	if err := s.notificationSvc.SendEmail(user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	log.Printf("%s: user_id=%d known=true", domain.PasswordResetRequestEvent, user.ID)
	return nil
}

// ResetPassword implements domain.AuthService
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = NormalizeEmail(email)

	hashedPassword, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.ConsumeResetToken(ctx, email, token, hashedPassword)
	if err != nil {
		if err == domain.ErrResetTokenInvalid {
			return err
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	log.Printf("%s: user_id=%d", domain.PasswordResetEvent, user.ID)
	return nil
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
