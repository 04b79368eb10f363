package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID is the key for the user's document id in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyAuthID is the key for the external auth id in gin context
	ContextKeyAuthID = "auth_id"
	// ContextKeyUsername is the key for the username in gin context
	ContextKeyUsername = "username"
)

// bearerToken extracts the token from an Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates session tokens and sets user info in context.
// Requests without a valid token are rejected before any storage access.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(token)
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyAuthID, claims.AuthID)
		c.Set(ContextKeyUsername, claims.Username)

		c.Next()
	}
}

// OptionalAuthMiddleware sets user info when a valid token is present but
// lets anonymous requests through. Used on routes that serve public content
// with extra state (pins, has-update flags) for signed-in viewers.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := ValidateToken(token)
		if err != nil {
			// A malformed token on an optional route is treated as anonymous
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyAuthID, claims.AuthID)
		c.Set(ContextKeyUsername, claims.Username)

		c.Next()
	}
}

// GetUserID returns the user's document id from the gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	return userID.(string), true
}

// GetAuthID returns the external auth id from the gin context
func GetAuthID(c *gin.Context) (string, bool) {
	authID, exists := c.Get(ContextKeyAuthID)
	if !exists {
		return "", false
	}
	return authID.(string), true
}

// GetUsername returns the username from the gin context
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(ContextKeyUsername)
	if !exists {
		return "", false
	}
	return username.(string), true
}
