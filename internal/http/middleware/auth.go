// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Tokens are HS256 JWTs
// issued at login; the subject claim carries the user ID. The middleware only
// verifies and extracts identity – authorization (ownership of contacts) is
// enforced in the service layer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// userIDKey is the Gin context key under which the authenticated user ID is
// stored. Logging and rate limiting read the same key.
const userIDKey = "userID"

// UserIDFrom returns the authenticated user ID set by Authenticate.
func UserIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Authenticate returns a middleware that requires a valid
// "Authorization: Bearer <jwt>" header signed with secret.
//
// Failures abort with 401 and a compact JSON body; the error code
// distinguishes a missing header from an invalid or expired token.
func Authenticate(secret string) gin.HandlerFunc {
	keyFn := func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "missing_token", "authorization required")
			return
		}

		var claims jwt.RegisteredClaims
		tok, err := parser.ParseWithClaims(raw, &claims, keyFn)
		if err != nil || !tok.Valid || claims.Subject == "" {
			abortUnauthorized(c, "invalid_token", "invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value,
// tolerating case variations of the "Bearer" scheme.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
