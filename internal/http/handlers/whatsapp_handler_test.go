package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jpereyra/contabot-backend/internal/services"
)

var webhookNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

// signedHeader builds the provider's "t=<unix>,s=<hex>" header for body.
func signedHeader(secret, body string, ts time.Time) string {
	tsStr := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tsStr + "." + body + "."))
	return "t=" + tsStr + ",s=" + hex.EncodeToString(mac.Sum(nil))
}

func inboundEnvelope(sendTime time.Time, wrapped bool) string {
	msg := fmt.Sprintf(`{"from":"+5491122334455","to":"+5491199999999","wamid":"wamid.h.1","type":"text","sendTime":%q,"text":{"body":"ventas 2025-12"}}`,
		sendTime.Format(time.RFC3339))
	if wrapped {
		return `{"body":{"whatsappInboundMessage":` + msg + `}}`
	}
	return `{"whatsappInboundMessage":` + msg + `}`
}

func verifyingPolicy(secret string) WebhookPolicy {
	return WebhookPolicy{
		VerifySignature: true,
		Secret:          secret,
		MaxMessageAge:   2 * time.Minute,
		Now:             func() time.Time { return webhookNow },
	}
}

func TestWhatsAppAgent_RequiresKey(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "hola"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, WebhookPolicy{InternalAPIKey: "sekret"})

	body := `{"from_number":"+5491122334455","text":"hola","message_id":"wamid.1"}`

	// missing key
	if w := postJSON(r, "/wa/agent", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status=%d", w.Code)
	}
	// wrong key
	if w := postJSON(r, "/wa/agent", body, map[string]string{"X-API-Key": "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status=%d", w.Code)
	}
	// unconfigured key closes the endpoint entirely
	rClosed := newAgentRouter(t, &fakeDialogue{}, gw, WebhookPolicy{})
	if w := postJSON(rClosed, "/wa/agent", body, map[string]string{"X-API-Key": ""}); w.Code != http.StatusUnauthorized {
		t.Fatalf("unconfigured key: status=%d", w.Code)
	}
}

func TestWhatsAppAgent_Relay(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "✅ Recibido."}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, WebhookPolicy{InternalAPIKey: "sekret"})

	body := `{"from_number":"+54 9 11 2233-4455","text":"ventas 2025-12","message_id":"wamid.2"}`
	w := postJSON(r, "/wa/agent", body, map[string]string{"X-API-Key": "sekret"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var out WhatsAppAgentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Reply != "✅ Recibido." {
		t.Fatalf("reply=%q", out.Reply)
	}
	// the raw address goes through; normalization is the gateway's job
	if gw.lastFrom != "+54 9 11 2233-4455" || gw.lastMessageID != "wamid.2" {
		t.Fatalf("gateway got from=%q id=%q", gw.lastFrom, gw.lastMessageID)
	}
}

func TestWhatsAppAgent_GatewayError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("db down")}
	r := newAgentRouter(t, &fakeDialogue{}, gw, WebhookPolicy{InternalAPIKey: "sekret"})

	body := `{"from_number":"+5491122334455","text":"hola"}`
	w := postJSON(r, "/wa/agent", body, map[string]string{"X-API-Key": "sekret"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeGatewayFailed {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestWhatsAppWebhook_ValidSignature(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "respuesta"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := inboundEnvelope(webhookNow.Add(-30*time.Second), false)
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Reply   string `json:"reply"`
		From    string `json:"from"`
		To      string `json:"to"`
		Ignored bool   `json:"ignored"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Ignored || out.Reply != "respuesta" {
		t.Fatalf("unexpected response: %+v", out)
	}
	// the reply travels back from the business number to the sender
	if out.From != "+5491199999999" || out.To != "+5491122334455" {
		t.Fatalf("addressing: %+v", out)
	}
	if gw.lastText != "ventas 2025-12" || gw.lastMessageID != "wamid.h.1" {
		t.Fatalf("gateway got text=%q id=%q", gw.lastText, gw.lastMessageID)
	}
}

func TestWhatsAppWebhook_WrappedEnvelope(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "ok"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := inboundEnvelope(webhookNow.Add(-30*time.Second), true)
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gw.lastFrom != "+5491122334455" {
		t.Fatalf("wrapped envelope not unwrapped, from=%q", gw.lastFrom)
	}
}

func TestWhatsAppWebhook_InvalidSignature(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "x"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := inboundEnvelope(webhookNow, false)

	// wrong secret
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("other", body, webhookNow),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeInvalidSignature {
		t.Fatalf("code=%q", er.Code)
	}

	// missing header
	if w := postJSON(r, "/webhooks/whatsapp", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status=%d", w.Code)
	}

	// stale timestamp
	w = postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow.Add(-10*time.Minute)),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale timestamp: status=%d", w.Code)
	}
}

func TestWhatsAppWebhook_BypassKeyWhenVerificationDisabled(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "ok"}}
	policy := WebhookPolicy{
		VerifySignature: false,
		InternalAPIKey:  "sekret",
		Now:             func() time.Time { return webhookNow },
	}
	r := newAgentRouter(t, &fakeDialogue{}, gw, policy)

	body := inboundEnvelope(webhookNow, false)

	if w := postJSON(r, "/webhooks/whatsapp", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status=%d", w.Code)
	}
	if w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{"X-API-Key": "sekret"}); w.Code != http.StatusOK {
		t.Fatalf("bypass key: status=%d", w.Code)
	}
}

func TestWhatsAppWebhook_OldMessageIgnored(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "should not be called"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := inboundEnvelope(webhookNow.Add(-5*time.Minute), false)
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var out struct {
		Ignored bool   `json:"ignored"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !out.Ignored || out.Reason != "old" {
		t.Fatalf("expected ignored=old, got %+v", out)
	}
	if gw.lastMessageID != "" {
		t.Fatal("stale message must not reach the gateway")
	}
}

func TestWhatsAppWebhook_DuplicateAcknowledged(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "✅ Recibido.", Duplicate: true}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := inboundEnvelope(webhookNow.Add(-10*time.Second), false)
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}

	var out struct {
		Ignored bool   `json:"ignored"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !out.Ignored || out.Reason != "duplicate" {
		t.Fatalf("expected ignored=duplicate, got %+v", out)
	}
}

func TestWhatsAppWebhook_BadPayloads(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "x"}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing inbound message", `{"somethingElse":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/webhooks/whatsapp", tc.body, map[string]string{
				"YCloud-Signature": signedHeader("shh", tc.body, webhookNow),
			})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestWhatsAppWebhook_NonTextForwardedEmpty(t *testing.T) {
	gw := &fakeGateway{result: &services.InboundResult{Reply: "🤖 Solo puedo procesar mensajes de texto."}}
	r := newAgentRouter(t, &fakeDialogue{}, gw, verifyingPolicy("shh"))

	body := fmt.Sprintf(`{"whatsappInboundMessage":{"from":"+5491122334455","to":"+5491199999999","wamid":"wamid.img.1","type":"image","sendTime":%q}}`,
		webhookNow.Format(time.RFC3339))
	w := postJSON(r, "/webhooks/whatsapp", body, map[string]string{
		"YCloud-Signature": signedHeader("shh", body, webhookNow),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gw.lastText != "" {
		t.Fatalf("non-text message must forward empty text, got %q", gw.lastText)
	}
}
