package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signedHeader(t *testing.T, ts int64, body []byte, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s.", ts, body)
	return fmt.Sprintf("t=%d,s=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	now := time.Unix(1_770_099_810, 0)
	body := []byte(`{"whatsappInboundMessage":{"from":"549112233"}}`)
	secret := "whsec_test"

	if !VerifySignature(signedHeader(t, now.Unix(), body, secret), body, secret, now) {
		t.Fatal("valid signature rejected")
	}

	// Signature over a different body.
	if VerifySignature(signedHeader(t, now.Unix(), []byte("{}"), secret), body, secret, now) {
		t.Fatal("body mismatch accepted")
	}

	// Wrong secret.
	if VerifySignature(signedHeader(t, now.Unix(), body, "other"), body, secret, now) {
		t.Fatal("wrong secret accepted")
	}
}

func TestVerifySignature_ReplayWindow(t *testing.T) {
	now := time.Unix(1_770_099_810, 0)
	body := []byte("{}")
	secret := "whsec_test"

	old := now.Add(-MaxSkew - time.Second).Unix()
	if VerifySignature(signedHeader(t, old, body, secret), body, secret, now) {
		t.Fatal("stale timestamp accepted")
	}

	future := now.Add(MaxSkew + time.Second).Unix()
	if VerifySignature(signedHeader(t, future, body, secret), body, secret, now) {
		t.Fatal("future timestamp accepted")
	}

	edge := now.Add(-MaxSkew).Unix()
	if !VerifySignature(signedHeader(t, edge, body, secret), body, secret, now) {
		t.Fatal("in-window timestamp rejected")
	}
}

func TestVerifySignature_MalformedHeaders(t *testing.T) {
	now := time.Unix(1_770_099_810, 0)
	body := []byte("{}")

	for _, h := range []string{
		"",
		"t=123",
		"s=deadbeef",
		"t=notanumber,s=deadbeef",
		"garbage",
	} {
		if VerifySignature(h, body, "whsec_test", now) {
			t.Fatalf("malformed header accepted: %q", h)
		}
	}
	if VerifySignature(signedHeader(t, now.Unix(), body, "whsec_test"), body, "", now) {
		t.Fatal("empty secret accepted")
	}
}
