package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/you/moodsvc/internal/http/handlers"
	"github.com/you/moodsvc/internal/http/middleware"
	"github.com/you/moodsvc/internal/infrastructure/auth"
	"github.com/you/moodsvc/internal/infrastructure/repositories"
	"github.com/you/moodsvc/internal/mocks"
	"github.com/you/moodsvc/internal/realtime"
	"github.com/you/moodsvc/internal/services"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && regexMatch(r.act, p.act)
`

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the full stack against an in-memory database and
// Redis, with notifications captured instead of delivered.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *mocks.MockNotificationService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&repositories.DBUser{}, &repositories.DBMoodEntry{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	notifySvc := mocks.NewMockNotificationService()
	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService("test-secret", "moodsvc", 15*time.Minute, time.Hour)

	userRepo := repositories.NewUserRepository(db)
	moodRepo := repositories.NewMoodRepository(db)
	sessionRepo := repositories.NewSessionRepository(rdb, time.Hour)

	manager := realtime.NewManager(4096)
	gate := realtime.NewGate(tokenSvc, manager)

	otpSvc := services.NewOTPService(notifySvc, rdb, services.OTPConfig{
		Length: 6, TTL: 5 * time.Minute, MaxAttempts: 3, ResendWindow: time.Minute,
	})
	authSvc := services.NewAuthService(userRepo, sessionRepo, passwordSvc, tokenSvc, otpSvc, notifySvc, services.AuthConfig{
		AccessTTL:      15 * time.Minute,
		SessionTTL:     time.Hour,
		VerifyTokenTTL: 24 * time.Hour,
		ResetTokenTTL:  time.Hour,
		PublicURL:      "http://localhost:8080",
	})
	moodSvc := services.NewMoodService(moodRepo, manager)

	m, err := casbinmodel.NewModelFromString(rbacModel)
	require.NoError(t, err)
	enforcer, err := casbin.NewEnforcer(m)
	require.NoError(t, err)
	enforcer.AddPolicy("role_user", "/auth/me", "GET")
	enforcer.AddPolicy("role_user", "/auth/logout", "POST")
	enforcer.AddPolicy("role_user", "/mood", "(GET|POST)")

	r := BuildRouter(
		handlers.NewAuthHandlers(authSvc, otpSvc, userRepo),
		handlers.NewMoodHandlers(moodSvc),
		gate,
		middleware.NewAuthMW(tokenSvc, sessionRepo),
		middleware.NewCasbinMW(enforcer),
		nil,
	)
	return r, db, notifySvc
}

func doJSON(t *testing.T, r *gin.Engine, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_FullAccountLifecycle(t *testing.T) {
	r, db, notifySvc := newTestRouter(t)

	// Register
	w := doJSON(t, r, http.MethodPost, "/auth/register", "",
		gin.H{"name": "Alice", "email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, notifySvc.SentEmails, 1)

	// A duplicate registration is refused
	w = doJSON(t, r, http.MethodPost, "/auth/register", "",
		gin.H{"name": "Alice", "email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login before verification still works; verification gates nothing here
	w = doJSON(t, r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Pull the verification token straight from the store, as the email would carry it
	var stored repositories.DBUser
	require.NoError(t, db.Where("email = ?", "alice@x.com").First(&stored).Error)
	require.NotEmpty(t, stored.VerifyToken)

	w = doJSON(t, r, http.MethodGet,
		"/auth/verify-email?token="+stored.VerifyToken+"&email=alice@x.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var verifyResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verifyResp))
	require.NotEmpty(t, verifyResp.Token)

	// The link is single use
	w = doJSON(t, r, http.MethodGet,
		"/auth/verify-email?token="+stored.VerifyToken+"&email=alice@x.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := verifyResp.Token

	// Authenticated profile
	w = doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Log a mood and read it back
	w = doJSON(t, r, http.MethodPost, "/mood", token, gin.H{"mood": "happy", "note": "shipped it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/mood", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history struct {
		Data []struct {
			Mood string `json:"mood"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Data, 1)
	assert.Equal(t, "happy", history.Data[0].Mood)

	// Logout revokes the session; the same token no longer passes
	w = doJSON(t, r, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	r, _, _ := newTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodPost, "/mood"},
		{http.MethodGet, "/mood"},
	}

	for _, rt := range routes {
		w := doJSON(t, r, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}

func TestRouter_LoginFailuresAreUniform(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "",
		gin.H{"name": "Bob", "email": "bob@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	unknown := doJSON(t, r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "ghost@x.com", "password": "secret1"})
	wrongPw := doJSON(t, r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "bob@x.com", "password": "wrong-password"})

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	// Byte-identical failures keep account enumeration off the table
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
}

func TestRouter_PasswordResetFlow(t *testing.T) {
	r, db, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "",
		gin.H{"name": "Cara", "email": "cara@x.com", "password": "original1"})
	require.Equal(t, http.StatusCreated, w.Code)

	known := doJSON(t, r, http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "cara@x.com"})
	unknown := doJSON(t, r, http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "ghost@x.com"})
	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String(),
		"forgot-password must not reveal whether the address exists")

	var stored repositories.DBUser
	require.NoError(t, db.Where("email = ?", "cara@x.com").First(&stored).Error)
	require.NotEmpty(t, stored.ResetToken)

	w = doJSON(t, r, http.MethodPost, "/auth/reset-password", "",
		gin.H{"email": "cara@x.com", "token": stored.ResetToken, "new_password": "brand-new1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password dead, new one works
	w = doJSON(t, r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "cara@x.com", "password": "original1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "",
		gin.H{"email": "cara@x.com", "password": "brand-new1"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
