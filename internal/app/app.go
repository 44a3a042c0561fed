package app

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/internal/config"
	httpx "github.com/you/moodsvc/internal/http"
	"github.com/you/moodsvc/internal/http/handlers"
	"github.com/you/moodsvc/internal/http/middleware"
	"github.com/you/moodsvc/internal/infrastructure/auth"
	"github.com/you/moodsvc/internal/infrastructure/database"
	"github.com/you/moodsvc/internal/infrastructure/notifications"
	"github.com/you/moodsvc/internal/infrastructure/repositories"
	"github.com/you/moodsvc/internal/realtime"
	"github.com/you/moodsvc/internal/services"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return err
	}
	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return err
	}
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB).Client
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return err
	}

	// Infrastructure services
	passwordSvc := auth.NewPasswordService()
	tokenSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	mailer, err := notifications.NewSMTPMailer(cfg.MailHost, cfg.MailName, cfg.MailAddress, cfg.MailSkipVerify)
	if err != nil {
		return err
	}
	notificationSvc := notifications.NewService(
		notifications.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom),
		mailer,
	)

	// Repositories
	userRepo := repositories.NewUserRepository(gdb)
	moodRepo := repositories.NewMoodRepository(gdb)
	sessionRepo := repositories.NewSessionRepository(rdb, cfg.RefreshTTL)

	// Realtime hub
	manager := realtime.NewManager(cfg.WSReadLimit)
	gate := realtime.NewGate(tokenSvc, manager)

	// Services
	otpSvc := services.NewOTPService(notificationSvc, rdb, services.OTPConfig{
		Length:       cfg.OTP_Length,
		TTL:          cfg.OTP_TTL,
		MaxAttempts:  cfg.OTP_MaxAttempts,
		ResendWindow: cfg.OTP_ResendWindow,
	})
	authSvc := services.NewAuthService(userRepo, sessionRepo, passwordSvc, tokenSvc, otpSvc, notificationSvc, services.AuthConfig{
		AccessTTL:      cfg.AccessTTL,
		SessionTTL:     cfg.RefreshTTL,
		VerifyTokenTTL: cfg.VerifyTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
		PublicURL:      cfg.PublicURL,
	})
	moodSvc := services.NewMoodService(moodRepo, manager)

	// Handlers and middleware
	authH := handlers.NewAuthHandlers(authSvc, otpSvc, userRepo)
	moodH := handlers.NewMoodHandlers(moodSvc)
	jwtMW := middleware.NewAuthMW(tokenSvc, sessionRepo)
	casbinMW := middleware.NewCasbinMW(cas.E)

	r := httpx.BuildRouter(authH, moodH, gate, jwtMW, casbinMW, cfg.AllowedOrigins)

	policies, _ := cas.E.GetPolicy()
	if len(policies) == 0 {
		cas.E.AddPolicy("role_user", "/auth/me", "GET")
		cas.E.AddPolicy("role_user", "/auth/logout", "POST")
		cas.E.AddPolicy("role_user", "/mood", "(GET|POST)")
		cas.E.AddPolicy("role_admin", "/*", "(GET|POST|PUT|DELETE)")
		_ = cas.E.SavePolicy()
		log.Println("casbin: seeded default policies")
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
