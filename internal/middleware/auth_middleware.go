package middleware

import (
	"net/http"
	"strings"

	"orderlyflow/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "userID"
	OrgIDKey  = "organizationID"
)

// JWTAuthMiddleware requires a bearer token and stores its user and
// organization ids on the context.
func JWTAuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := issuer.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(OrgIDKey, claims.OrganizationID)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside JWTAuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func OrganizationID(c *gin.Context) string {
	return c.GetString(OrgIDKey)
}
