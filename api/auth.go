package api

import (
	"github.com/gin-gonic/gin"

	"github.com/relai-app/relai-server/auth"
	"github.com/relai-app/relai-server/log"
)

// GoogleAuthURL handles GET /auth/google/url
func (h *Handlers) GoogleAuthURL(c *gin.Context) {
	url, err := auth.AuthCodeURL()
	if err != nil {
		RespondServiceUnavailable(c, "Google OAuth is not configured")
		return
	}
	RespondData(c, gin.H{"auth_url": url})
}

// GoogleToken handles POST /auth/google/token: exchanges the OAuth code for
// an app JWT.
func (h *Handlers) GoogleToken(c *gin.Context) {
	var body struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}
	if body.Code == "" {
		RespondBadRequest(c, "code is required")
		return
	}

	result, err := auth.ExchangeCode(c.Request.Context(), body.Code, body.RedirectURI)
	if err != nil {
		log.Warn().Err(err).Msg("google oauth exchange failed")
		RespondUnauthorized(c, "OAuth code exchange failed")
		return
	}

	RespondData(c, result)
}

// Me handles GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	claims := mustClaims(c)
	RespondData(c, gin.H{
		"id":      claims.Subject,
		"email":   claims.Email,
		"name":    claims.Name,
		"picture": claims.Picture,
	})
}

// Protected handles GET /auth/protected
func (h *Handlers) Protected(c *gin.Context) {
	claims := mustClaims(c)
	RespondData(c, gin.H{
		"message": "This is a protected route",
		"user_id": claims.Subject,
		"email":   claims.Email,
	})
}

// mustClaims returns the claims stored by the auth middleware. Only valid on
// routes behind RequireAuth.
func mustClaims(c *gin.Context) *auth.Claims {
	return c.MustGet("claims").(*auth.Claims)
}
