package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// AuthConfig lists the accepted admin credentials. A static token may be
// written as "name=token"; name then becomes the actor.
type AuthConfig struct {
	StaticTokens []string
	JWTSecret    string
}

// Actor returns the authenticated admin recorded by AuthMiddleware.
func Actor(c *gin.Context) string {
	return c.GetString(actorKey)
}

// bearer extracts the token from the Authorization header. WebSocket
// handshakes from browsers cannot set headers, so they may pass
// access_token as a query parameter instead.
func bearer(c *gin.Context) (string, bool) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		return parts[1], true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
	}
	return "", false
}

// AuthMiddleware accepts an HMAC-signed JWT, whose subject becomes the actor,
// or one of the static tokens.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	type static struct{ actor, token string }
	var tokens []static
	for _, t := range cfg.StaticTokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if name, tok, ok := strings.Cut(t, "="); ok {
			tokens = append(tokens, static{actor: name, token: tok})
		} else {
			tokens = append(tokens, static{actor: "admin", token: t})
		}
	}
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)

	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}

		// JWT path
		if jwtSecret != "" {
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				actor, _ := token.Claims.GetSubject()
				if actor == "" {
					actor = "admin"
				}
				c.Set(actorKey, actor)
				c.Next()
				return
			}
		}

		// static tokens
		for _, t := range tokens {
			if tokenStr == t.token {
				c.Set(actorKey, t.actor)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}
