package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = httpx.ContextKeyUserID
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeySystemRole is the key for system role in gin context
	ContextKeySystemRole = "system_role"
)

// SetUser records the authenticated user on the request context
func SetUser(c *gin.Context, userID uint, email, systemRole string) {
	c.Set(ContextKeyUserID, userID)
	c.Set(ContextKeyEmail, email)
	c.Set(ContextKeySystemRole, systemRole)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// ok is false when the header is missing; err is set when it is malformed.
func BearerToken(c *gin.Context) (token string, ok bool, err error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", true, errors.New("invalid authorization header format")
	}
	return parts[1], true, nil
}

func unauthorized(c *gin.Context, msg string) {
	httpx.Error(c, http.StatusUnauthorized, msg)
}

// AuthMiddleware validates JWT tokens and sets user info in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok, err := BearerToken(c)
		if !ok {
			unauthorized(c, "Authentication required")
			return
		}
		if err != nil {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := ValidateToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				unauthorized(c, "Token has expired")
			} else {
				unauthorized(c, "Invalid token")
			}
			return
		}

		SetUser(c, claims.UserID, claims.Email, claims.SystemRole)
		c.Next()
	}
}

// RequireAdmin middleware checks if the user has admin system role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetSystemRole(c)
		if !exists {
			unauthorized(c, "Authentication required")
			return
		}

		if role != "admin" {
			httpx.Error(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetEmail returns the email from the gin context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetSystemRole returns the system role from the gin context
func GetSystemRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextKeySystemRole)
	if !exists {
		return "", false
	}
	return role.(string), true
}
