package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const clientContextKey = "auth_client"

// Middleware validates bearer tokens and stores the client name in the
// context. It is a pass-through when the service is disabled.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Enabled() {
			c.Next()
			return
		}
		token := s.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authorization required"})
			return
		}
		client, err := s.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": ErrInvalidToken.Error()})
			return
		}
		c.Set(clientContextKey, client)
		c.Next()
	}
}

// ClientFromContext retrieves the authenticated client name.
func ClientFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(clientContextKey)
	if !ok {
		return "", false
	}
	client, ok := val.(string)
	return client, ok
}

func (s *Service) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader(s.headerName)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
