package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/domain"
)

// Gate validates the token presented at connection handshake time and, on
// success, admits the connection into the manager. Rejections happen
// before the upgrade with the same generic body regardless of whether the
// token was missing, malformed or expired.
type Gate struct {
	tokenSvc domain.TokenService
	manager  *Manager
}

// NewGate creates a new handshake gate
func NewGate(tokenSvc domain.TokenService, manager *Manager) *Gate {
	return &Gate{tokenSvc: tokenSvc, manager: manager}
}

// Handle is the Gin handler for the websocket endpoint.
func (g *Gate) Handle(c *gin.Context) {
	token := handshakeToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	claims, err := g.tokenSvc.ValidateAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	g.manager.HandleWebsocket(c.Writer, c.Request, claims.UserID)
}

// handshakeToken extracts the candidate token from the query parameter or
// the Authorization header.
func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
