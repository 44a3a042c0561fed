package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/domain"
	"github.com/you/moodsvc/internal/http/middleware"
	"github.com/you/moodsvc/internal/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authHandlerMocks struct {
	authSvc  *mocks.MockAuthService
	otpSvc   *mocks.MockOTPService
	userRepo *mocks.MockUserRepository
}

func newAuthHandlers(t *testing.T) (*AuthHandlers, *authHandlerMocks) {
	t.Helper()
	m := &authHandlerMocks{
		authSvc:  mocks.NewMockAuthService(),
		otpSvc:   mocks.NewMockOTPService(),
		userRepo: mocks.NewMockUserRepository(),
	}
	return NewAuthHandlers(m.authSvc, m.otpSvc, m.userRepo), m
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, target string, body any, ctxValues map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	for k, v := range ctxValues {
		c.Set(k, v)
	}
	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestAuthHandlers_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.RegisterFunc = func(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
			return &domain.User{ID: 5, Name: name, Email: email}, nil
		}

		w := performJSON(t, h.Register, http.MethodPost, "/auth/register",
			gin.H{"name": "Alice", "email": "alice@x.com", "password": "secret1"}, nil)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["success"] != true {
			t.Error("expected success true")
		}
		if body["user_id"] != float64(5) {
			t.Errorf("expected user_id 5, got %v", body["user_id"])
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.RegisterFunc = func(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
			return nil, domain.ErrUserAlreadyExists
		}

		w := performJSON(t, h.Register, http.MethodPost, "/auth/register",
			gin.H{"name": "Alice", "email": "alice@x.com", "password": "secret1"}, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["message"] != "Email already registered" {
			t.Errorf("unexpected message %v", body["message"])
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		called := false
		m.authSvc.RegisterFunc = func(ctx context.Context, name, email, phone, password string) (*domain.User, error) {
			called = true
			return nil, nil
		}

		tests := []struct {
			name string
			body gin.H
		}{
			{"missing email", gin.H{"name": "A", "password": "secret1"}},
			{"bad email", gin.H{"name": "A", "email": "not-an-email", "password": "secret1"}},
			{"short password", gin.H{"name": "A", "email": "a@x.com", "password": "123"}},
			{"missing name", gin.H{"email": "a@x.com", "password": "secret1"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := performJSON(t, h.Register, http.MethodPost, "/auth/register", tt.body, nil)
				if w.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", w.Code)
				}
			})
		}
		if called {
			t.Error("service must not be called on validation failure")
		}
	})
}

func TestAuthHandlers_Login(t *testing.T) {
	t.Run("failures share one body", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.LoginFunc = func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		}

		unknown := performJSON(t, h.Login, http.MethodPost, "/auth/login",
			gin.H{"email": "ghost@x.com", "password": "whatever"}, nil)
		wrongPw := performJSON(t, h.Login, http.MethodPost, "/auth/login",
			gin.H{"email": "real@x.com", "password": "wrong"}, nil)

		if unknown.Code != http.StatusUnauthorized || wrongPw.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrongPw.Code)
		}
		if unknown.Body.String() != wrongPw.Body.String() {
			t.Errorf("failure bodies differ: %q vs %q", unknown.Body.String(), wrongPw.Body.String())
		}
		body := decodeBody(t, unknown)
		if body["error"] != "Invalid credentials" {
			t.Errorf("unexpected error %v", body["error"])
		}
	})

	t.Run("successful login sets cookie", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.LoginFunc = func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:         &domain.User{ID: 1, Name: "Alice", Email: "alice@x.com"},
				AccessToken:  "jwt-access",
				RefreshToken: "jwt-refresh",
				SessionID:    "sess-1",
				ExpiresIn:    900,
			}, nil
		}

		w := performJSON(t, h.Login, http.MethodPost, "/auth/login",
			gin.H{"email": "alice@x.com", "password": "secret1"}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["token"] != "jwt-access" || body["refresh_token"] != "jwt-refresh" {
			t.Errorf("unexpected tokens in %v", body)
		}
		if body["token_type"] != "Bearer" {
			t.Errorf("unexpected token_type %v", body["token_type"])
		}
		user, _ := body["user"].(map[string]any)
		if user["email"] != "alice@x.com" {
			t.Errorf("unexpected user block %v", body["user"])
		}

		cookie := findCookie(t, w, middleware.AuthCookieName)
		if cookie == nil {
			t.Fatal("expected auth cookie to be set")
		}
		if cookie.Value != "jwt-access" || !cookie.HttpOnly {
			t.Errorf("unexpected cookie: %+v", cookie)
		}
	})
}

func TestAuthHandlers_VerifyEmail(t *testing.T) {
	t.Run("valid link", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.VerifyEmailFunc = func(ctx context.Context, email, token string) (*domain.AuthResult, error) {
			if email != "a@x.com" || token != "tok-1" {
				t.Errorf("unexpected args %q %q", email, token)
			}
			return &domain.AuthResult{
				User:        &domain.User{ID: 1, Email: email, IsVerified: true},
				AccessToken: "fresh-token",
				ExpiresIn:   900,
			}, nil
		}

		w := performJSON(t, h.VerifyEmail, http.MethodGet, "/auth/verify-email?token=tok-1&email=a@x.com", nil, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["token"] != "fresh-token" {
			t.Errorf("expected fresh token in response, got %v", body["token"])
		}
		if findCookie(t, w, middleware.AuthCookieName) == nil {
			t.Error("expected auth cookie after verification")
		}
	})

	t.Run("invalid link", func(t *testing.T) {
		h, _ := newAuthHandlers(t)

		w := performJSON(t, h.VerifyEmail, http.MethodGet, "/auth/verify-email?token=bad&email=a@x.com", nil, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["message"] != "Invalid or expired verification link" {
			t.Errorf("unexpected message %v", body["message"])
		}
	})

	t.Run("missing parameters", func(t *testing.T) {
		h, _ := newAuthHandlers(t)

		w := performJSON(t, h.VerifyEmail, http.MethodGet, "/auth/verify-email?token=tok-1", nil, nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	h, m := newAuthHandlers(t)
	var loggedOut string
	m.authSvc.LogoutFunc = func(ctx context.Context, sessionID string) error {
		loggedOut = sessionID
		return nil
	}

	w := performJSON(t, h.Logout, http.MethodPost, "/auth/logout", nil,
		map[string]any{"user_id": "1", "session_id": "sess-9"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if loggedOut != "sess-9" {
		t.Errorf("expected session sess-9 revoked, got %q", loggedOut)
	}

	cookie := findCookie(t, w, middleware.AuthCookieName)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Errorf("expected cleared auth cookie, got %+v", cookie)
	}
}

func TestAuthHandlers_Refresh(t *testing.T) {
	t.Run("rotates the access token", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.RefreshTokenFunc = func(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
			return &domain.AuthResult{
				User:        &domain.User{ID: 1},
				AccessToken: "rotated",
				ExpiresIn:   900,
			}, nil
		}

		w := performJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
			gin.H{"refresh_token": "refresh-1"}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if decodeBody(t, w)["token"] != "rotated" {
			t.Error("expected rotated token")
		}
	})

	t.Run("dead session yields the generic 401", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.RefreshTokenFunc = func(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
			return nil, domain.ErrSessionNotFound
		}

		w := performJSON(t, h.Refresh, http.MethodPost, "/auth/refresh",
			gin.H{"refresh_token": "refresh-1"}, nil)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if decodeBody(t, w)["error"] != "Authentication required" {
			t.Error("expected the generic auth failure body")
		}
	})
}

func TestAuthHandlers_ForgotPassword(t *testing.T) {
	h, m := newAuthHandlers(t)
	requested := []string{}
	m.authSvc.ForgotPasswordFunc = func(ctx context.Context, email string) error {
		requested = append(requested, email)
		return nil
	}

	known := performJSON(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password",
		gin.H{"email": "known@x.com"}, nil)
	unknown := performJSON(t, h.ForgotPassword, http.MethodPost, "/auth/forgot-password",
		gin.H{"email": "ghost@x.com"}, nil)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", known.Code, unknown.Code)
	}
	// Identical acknowledgement regardless of whether the address exists
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("bodies differ: %q vs %q", known.Body.String(), unknown.Body.String())
	}
	if len(requested) != 2 {
		t.Errorf("expected both requests forwarded, got %v", requested)
	}
}

func TestAuthHandlers_ResetPassword(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.ResetPasswordFunc = func(ctx context.Context, email, token, newPassword string) error {
			return nil
		}

		w := performJSON(t, h.ResetPassword, http.MethodPost, "/auth/reset-password",
			gin.H{"email": "a@x.com", "token": "tok-1", "new_password": "newsecret"}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.ResetPasswordFunc = func(ctx context.Context, email, token, newPassword string) error {
			return domain.ErrResetTokenInvalid
		}

		w := performJSON(t, h.ResetPassword, http.MethodPost, "/auth/reset-password",
			gin.H{"email": "a@x.com", "token": "bad", "new_password": "newsecret"}, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if decodeBody(t, w)["message"] != "Invalid or expired reset link" {
			t.Error("expected the generic reset failure message")
		}
	})
}

func TestAuthHandlers_SendOTP(t *testing.T) {
	withUser := func(m *authHandlerMocks) {
		m.userRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.User, error) {
			return &domain.User{ID: id, Phone: "+15550001111"}, nil
		}
	}

	t.Run("sends a code", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)

		w := performJSON(t, h.SendOTP, http.MethodPost, "/auth/otp/send",
			gin.H{"phone": "+15550001111", "user_id": 1}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("throttled resend", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)
		m.otpSvc.GenerateFunc = func(ctx context.Context, phone string, userID uint) (*domain.OTPRequest, error) {
			return nil, domain.ErrOTPResendLimit
		}

		w := performJSON(t, h.SendOTP, http.MethodPost, "/auth/otp/send",
			gin.H{"phone": "+15550001111", "user_id": 1}, nil)

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", w.Code)
		}
	})

	t.Run("phone mismatch", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)

		w := performJSON(t, h.SendOTP, http.MethodPost, "/auth/otp/send",
			gin.H{"phone": "+19998887777", "user_id": 1}, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_VerifyOTP(t *testing.T) {
	withUser := func(m *authHandlerMocks) {
		m.userRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.User, error) {
			return &domain.User{ID: id, Phone: "+15550001111"}, nil
		}
	}

	t.Run("activates the phone", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)
		var activated uint
		m.userRepo.ActivatePhoneFunc = func(ctx context.Context, userID uint) error {
			activated = userID
			return nil
		}

		w := performJSON(t, h.VerifyOTP, http.MethodPost, "/auth/otp/verify",
			gin.H{"phone": "+15550001111", "code": "123456", "user_id": 1}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if activated != 1 {
			t.Errorf("expected phone activation for user 1, got %d", activated)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)
		m.otpSvc.VerifyFunc = func(ctx context.Context, phone, code string, userID uint) (bool, error) {
			return false, domain.ErrOTPInvalid
		}

		w := performJSON(t, h.VerifyOTP, http.MethodPost, "/auth/otp/verify",
			gin.H{"phone": "+15550001111", "code": "999999", "user_id": 1}, nil)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("lockout", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		withUser(m)
		m.otpSvc.VerifyFunc = func(ctx context.Context, phone, code string, userID uint) (bool, error) {
			return false, domain.ErrOTPMaxAttempts
		}

		w := performJSON(t, h.VerifyOTP, http.MethodPost, "/auth/otp/verify",
			gin.H{"phone": "+15550001111", "code": "999999", "user_id": 1}, nil)

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_Me(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		h, m := newAuthHandlers(t)
		m.authSvc.GetUserProfileFunc = func(ctx context.Context, userID uint) (*domain.User, error) {
			return &domain.User{
				ID: userID, Name: "Alice", Email: "alice@x.com",
				IsVerified: true, CreatedAt: time.Now(),
			}, nil
		}

		w := performJSON(t, h.Me, http.MethodGet, "/auth/me", nil,
			map[string]any{"user_id": "1"})

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		data, _ := decodeBody(t, w)["data"].(map[string]any)
		if data["email"] != "alice@x.com" || data["is_verified"] != true {
			t.Errorf("unexpected profile %v", data)
		}
	})

	t.Run("missing identity", func(t *testing.T) {
		h, _ := newAuthHandlers(t)

		w := performJSON(t, h.Me, http.MethodGet, "/auth/me", nil, nil)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

// findCookie extracts a named cookie from the recorded response.
func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if strings.EqualFold(cookie.Name, name) {
			return cookie
		}
	}
	return nil
}
