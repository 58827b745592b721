// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements InternalBypass, which marks requests from trusted
// internal callers (automation flows holding the internal API key) so that
// downstream middleware can relax edge protections for them. Provider
// webhook deliveries and relay traffic must never be throttled into dropped
// messages by the public rate limiter; the upstream provider retries with
// backoff and the gateway already deduplicates by message id.
package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// HeaderInternalAPIKey is the request header automation callers use to
// authenticate against internal endpoints.
const HeaderInternalAPIKey = "X-API-Key"

const (
	ctxKeyInternalCaller = "internal.caller" // bool: X-API-Key matched
	ctxKeyRateBypass     = "rate.bypass"     // bool: true to skip rate limiting
)

// IsInternalCaller reports whether InternalBypass authenticated this request
// as internal automation.
func IsInternalCaller(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyInternalCaller)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// InternalBypass returns a middleware that compares the X-API-Key header
// against the configured internal key and, on a match, flags the request as
// an internal caller exempt from rate limiting.
//
// The comparison is constant-time. An empty configured key disables the
// bypass entirely; requests with a wrong key pass through unflagged and are
// rejected (or not) by the endpoint's own auth check.
func InternalBypass(internalKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if internalKey != "" {
			got := c.GetHeader(HeaderInternalAPIKey)
			if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(internalKey)) == 1 {
				c.Set(ctxKeyInternalCaller, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
