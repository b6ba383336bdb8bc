package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/fleet-trips-backend-go/pkg/response"
)

const claimsKey = "claims"

// Auth verifies the HS256 session token from the session cookie or an
// Authorization: Bearer header. An empty secret disables the check.
func Auth(secret, cookieName string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			response.Unauthorized(c)
			return
		}

		claims, err := ParseSession(token, key)
		if err != nil {
			_ = c.Error(err)
			response.Unauthorized(c)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ParseSession validates a session token and returns its claims. Tokens
// without an expiry are rejected.
func ParseSession(token string, key []byte) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}

// SessionSubject returns the authenticated user's subject, or "" for
// anonymous requests. The subject is read from user.sub, then sub.
func SessionSubject(c *gin.Context) string {
	value, ok := c.Get(claimsKey)
	if !ok {
		return ""
	}
	claims, ok := value.(jwt.MapClaims)
	if !ok {
		return ""
	}

	if user, ok := claims["user"].(map[string]interface{}); ok {
		if sub, ok := user["sub"].(string); ok && sub != "" {
			return sub
		}
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
