package middleware

import (
	"strings"

	"legaldoc-pipeline/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware extracts the caller's user_id from a bearer token. Full
// token issuance/refresh/session management is the external auth
// collaborator named in spec.md's Non-goals — this middleware only
// recovers the identity the rest of the pipeline keys quotas, documents,
// and usage by.
type AuthMiddleware struct{}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

// RequireAuth rejects requests without an Authorization header and stores
// the header value, minus a leading "Bearer" prefix, as user_id in the gin
// context.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := extractUserID(c)
		if userID == "" {
			utils.RespondWithUnauthorized(c, "authentication token is required")
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func extractUserID(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
}

// GetUserID retrieves the authenticated caller's identity from context.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}
