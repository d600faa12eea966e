package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/auth"
	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

const actorKey = "actor"

// AuthMiddleware requires a valid access token and stores the caller as a
// domain.Actor in the context
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Missing authorization header")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(strings.TrimSpace(parts[1]), auth.AccessToken)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(actorKey, &domain.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
			IsStaff:  claims.IsStaff,
		})

		c.Next()
	}
}

// GetActor returns the authenticated caller, or nil outside AuthMiddleware
func GetActor(c *gin.Context) *domain.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*domain.Actor)
	return actor
}

// GetUserID retrieves the user ID from the request context
func GetUserID(c *gin.Context) string {
	if actor := GetActor(c); actor != nil {
		return actor.UserID
	}
	return ""
}
