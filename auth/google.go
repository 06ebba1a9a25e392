// Package auth implements Google OAuth sign-in and the app's JWT session
// tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/relai-app/relai-server/config"
)

// googleUserInfoURL is the endpoint used to resolve the signed-in account
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUserInfo is the subset of the Google userinfo payload the app keeps
type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// TokenResult is returned after a completed OAuth exchange
type TokenResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	UserInfo    GoogleUserInfo `json:"user_info"`
}

// Enabled reports whether Google OAuth is configured. When it is not, the
// API middleware passes requests through unauthenticated.
func Enabled() bool {
	cfg := config.Get()
	return cfg.GoogleClientID != "" && cfg.GoogleClientSecret != ""
}

// oauthConfig builds the Google OAuth2 config for a given redirect URI
func oauthConfig(redirectURI string) *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL returns the Google consent-screen URL the frontend redirects to
func AuthCodeURL() (string, error) {
	if !Enabled() {
		return "", fmt.Errorf("google oauth client not configured")
	}

	cfg := config.Get()
	conf := oauthConfig(cfg.FrontendURL + "/auth/callback")
	return conf.AuthCodeURL("", oauth2.AccessTypeOffline), nil
}

// ExchangeCode completes the OAuth flow: trades the authorization code for a
// Google access token, fetches userinfo, and issues an app JWT.
func ExchangeCode(ctx context.Context, code, redirectURI string) (TokenResult, error) {
	if !Enabled() {
		return TokenResult{}, fmt.Errorf("google oauth client not configured")
	}

	conf := oauthConfig(redirectURI)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return TokenResult{}, fmt.Errorf("exchanging code: %w", err)
	}

	info, err := fetchUserInfo(ctx, conf, token)
	if err != nil {
		return TokenResult{}, err
	}

	cfg := config.Get()
	appToken, err := CreateAccessToken(info.ID, info.Email, info.Name, info.Picture)
	if err != nil {
		return TokenResult{}, fmt.Errorf("signing app token: %w", err)
	}

	return TokenResult{
		AccessToken: appToken,
		TokenType:   "bearer",
		ExpiresIn:   cfg.JWTExpirationMinutes * 60,
		UserInfo:    info,
	}, nil
}

// fetchUserInfo resolves the Google account behind an access token
func fetchUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (GoogleUserInfo, error) {
	client := conf.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return GoogleUserInfo{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleUserInfo{}, fmt.Errorf("userinfo request returned %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleUserInfo{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	return info, nil
}
