package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/models"
)

const identityKey = "identity"

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	gate *auth.Gate
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(gate *auth.Gate) *AuthMiddleware {
	return &AuthMiddleware{
		gate: gate,
	}
}

// Authenticate rejects the request unless a session or a valid token is presented
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.gate.Authenticate(c.Request)
		if err != nil {
			AbortWithAPIError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RoleRequired admits only identities holding one of roles. Must run after Authenticate.
func (m *AuthMiddleware) RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(CurrentIdentity(c), roles...); err != nil {
			AbortWithAPIError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller bound by Authenticate, or nil
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}
