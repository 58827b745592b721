// Package webhook verifies the authenticity of inbound WhatsApp provider
// callbacks. The provider signs each delivery with an HMAC-SHA256 over
// "<timestamp>.<raw body>." and sends it as a "t=<unix>,s=<hex>" header; the
// timestamp doubles as a replay guard.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// MaxSkew is the accepted distance between the signature timestamp and the
// local clock, in either direction.
const MaxSkew = 5 * time.Minute

// VerifySignature checks header (the "t=...,s=..." value) against the raw
// request body. It returns false for malformed headers, replayed
// timestamps, and digest mismatches alike; callers get no reason, on
// purpose.
func VerifySignature(header string, rawBody []byte, secret string, now time.Time) bool {
	if header == "" || secret == "" {
		return false
	}

	var tsStr, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "t":
			tsStr = strings.TrimSpace(v)
		case "s":
			sig = strings.TrimSpace(v)
		}
	}
	if tsStr == "" || sig == "" {
		return false
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return false
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(MaxSkew/time.Second) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tsStr))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	mac.Write([]byte("."))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}
