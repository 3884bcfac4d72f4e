package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const oauthStateCookie = "oauth_state"

// GET /api/calendar/auth
// Starts the consent flow that yields the calendar refresh token.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", c.Request.TLS != nil, true)

	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	want, err := c.Cookie(oauthStateCookie)
	if err != nil || want == "" || want != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}

	token, err := a.OAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		a.logger().Warn("oauth code exchange failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	if token.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no refresh token returned; revoke access and retry"})
		return
	}

	a.logger().Info("calendar authorization completed")
	c.JSON(http.StatusOK, gin.H{
		"message":       "Authorization successful. Set GOOGLE_REFRESH_TOKEN and restart.",
		"refresh_token": token.RefreshToken,
	})
}
