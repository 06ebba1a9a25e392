package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/auth"
	"github.com/relai-app/relai-server/log"
)

// AuthMiddleware returns a Gin middleware that enforces bearer-token
// authentication when Google OAuth is configured. Without a configured
// client the API stays open.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}
		if !validateBearerToken(c) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth always enforces a valid bearer token, regardless of whether
// OAuth sign-in is configured. Used for the /auth/* identity endpoints.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validateBearerToken(c) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// validateBearerToken checks the Authorization header and stores the claims
// in the request context for downstream handlers. Writes the 401 itself.
func validateBearerToken(c *gin.Context) bool {
	header := c.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		RespondUnauthorized(c, "Missing bearer token")
		return false
	}

	claims, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		log.Debug().Err(err).Msg("token validation failed")
		RespondUnauthorized(c, "Invalid or expired token")
		return false
	}

	c.Set("claims", claims)
	return true
}
