// internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"medeasy-api-server/internal/apperr"
	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	PartyIDKey  = "user_party_id"
)

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// Authenticate validates the bearer token and puts the caller into the context.
func Authenticate(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := tokens.ParseJWT(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(PartyIDKey, claims.PartyID)
		c.Next()
	}
}

// Authorize allows the request through only for the given roles. It must run
// after Authenticate.
func Authorize(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(UserRoleKey)
		if !ok {
			abort(c, http.StatusUnauthorized, apperr.CodeUnauthorized, "Not authenticated")
			return
		}
		userRole, ok := role.(models.Role)
		if !ok {
			abort(c, http.StatusInternalServerError, apperr.CodeInternal, "User role has an invalid type")
			return
		}

		for _, r := range allowed {
			if r == userRole {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, apperr.CodeForbidden, "You do not have permission to access this resource")
	}
}

// UserID returns the authenticated caller, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// UserRole returns the authenticated caller's role, or "" on public routes.
func UserRole(c *gin.Context) models.Role {
	role, _ := c.Get(UserRoleKey)
	r, _ := role.(models.Role)
	return r
}
