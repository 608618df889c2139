package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/auth"
	"go_netinv/internal/httpx"
	"go_netinv/internal/model"
)

// AuthRequired is a middleware that validates JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		SetActor(c, claims.Actor())
		c.Next()
	}
}

// SetActor stores the caller identity in the request context
func SetActor(c *gin.Context, a model.Actor) {
	c.Set("uid", a.UID)
	c.Set("username", a.Username)
	c.Set("role", a.Role)
}

// CurrentActor returns the caller set by AuthRequired
func CurrentActor(c *gin.Context) model.Actor {
	return model.Actor{
		UID:      c.GetInt("uid"),
		Username: c.GetString("username"),
		Role:     c.GetString("role"),
	}
}

// RequirePermission rejects callers whose role does not grant perm
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if !auth.Allowed(role, perm) {
			httpx.FailErr(c, httpx.ErrForbidden("role "+role+" cannot "+perm.String()))
			c.Abort()
			return
		}
		c.Next()
	}
}
