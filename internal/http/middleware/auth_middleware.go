package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/domain"
)

// AuthCookieName is the HTTP-only cookie carrying the access token for
// browser clients that do not set the Authorization header.
const AuthCookieName = "auth_token"

// AuthMiddleware creates authentication middleware. Every failure mode
// (missing, malformed, bad signature, expired, dead session) produces the
// same 401 body so a caller cannot tell which check rejected it.
func AuthMiddleware(tokenSvc domain.TokenService, sessionRepo domain.SessionRepository) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := tokenSvc.ValidateAccessToken(token)
		if err != nil {
			unauthorized(c)
			return
		}

		// A token that names a session is only as good as the session
		if claims.SessionID != "" {
			session, err := sessionRepo.FindByID(c.Request.Context(), claims.SessionID)
			if err != nil || session == nil || session.UserID != claims.UserID {
				unauthorized(c)
				return
			}
		}

		// user_id is a string in context for Casbin compatibility
		c.Set("user_id", fmt.Sprintf("%d", claims.UserID))
		c.Set("user_role", claims.Role)
		if claims.SessionID != "" {
			c.Set("session_id", claims.SessionID)
		}

		c.Next()
	})
}

// extractToken prefers the Authorization header and falls back to the
// session cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	c.Abort()
}
