// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for contact creation. The
// middleware only validates the Idempotency-Key header and stashes the
// normalized key in the context; it runs before authentication, so anything
// needing the caller's identity (the replay lookup against stored records)
// belongs in the handler, where the authenticated user ID is available.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to deduplicate
// retried unsafe operations (POST /contacts).
const HeaderIdempotencyKey = "Idempotency-Key"

// ctxKeyIdemKey stashes the validated key, read via GetIdempotencyKey.
const ctxKeyIdemKey = "idem.key"

// GetIdempotencyKey returns the validated idempotency key stored by
// IdempotencyValidator. Handlers should use this rather than the raw header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyOptions configures header validation. TTL enforcement belongs in
// the storage lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length; values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means a conservative
	// token pattern ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyValidator validates the Idempotency-Key header when present and
// stashes it for the handler. Absent header is a no-op; an invalid header
// aborts with 400. The middleware never consults storage or serves a cached
// payload – the handler stays in control of replays.
func IdempotencyValidator(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}
