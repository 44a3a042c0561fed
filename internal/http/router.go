package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/internal/http/handlers"
	"github.com/you/moodsvc/internal/http/middleware"
	"github.com/you/moodsvc/internal/realtime"
)

func BuildRouter(ah *handlers.AuthHandlers, mh *handlers.MoodHandlers, gate *realtime.Gate, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.SecurityHeaders(), middleware.CORS(allowedOrigins))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/register", ah.Register)
	auth.GET("/verify-email", ah.VerifyEmail)
	auth.POST("/login", ah.Login)
	auth.POST("/forgot-password", ah.ForgotPassword)
	auth.POST("/reset-password", ah.ResetPassword)
	auth.POST("/refresh", ah.Refresh)
	auth.POST("/otp/send", ah.SendOTP)
	auth.POST("/otp/verify", ah.VerifyOTP)

	// Handshake auth happens inside the gate, before the upgrade
	r.GET("/ws", gate.Handle)

	v := r.Group("/").Use(jwtmw.WithJWT(), cb.Enforce())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)
	v.POST("/mood", mh.Log)
	v.GET("/mood", mh.History)

	return r
}
