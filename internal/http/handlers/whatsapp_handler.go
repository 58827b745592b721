// WhatsApp HTTP handlers.
//
// This file exposes the two entry points of the WhatsApp channel:
//   - POST /wa/agent            (internal relay, guarded by X-API-Key)
//   - POST /webhooks/whatsapp   (provider callback, guarded by HMAC signature)
//
// The webhook authenticates the delivery (signature in production, the
// internal key when signature checking is disabled), unwraps the provider
// envelope, drops stale messages, and forwards the text to the gateway. The
// relay skips envelope handling entirely for trusted automation callers.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpereyra/contabot-backend/internal/http/middleware"
	"github.com/jpereyra/contabot-backend/internal/webhook"
)

// WebhookPolicy carries the webhook authentication and freshness settings
// from configuration into the handler.
type WebhookPolicy struct {
	// VerifySignature selects HMAC verification; when false, the internal
	// API key guards the endpoint instead.
	VerifySignature bool
	// Secret is the HMAC secret shared with the provider.
	Secret string
	// InternalAPIKey authenticates automation callers.
	InternalAPIKey string
	// MaxMessageAge drops messages sent longer ago than this (0 = no limit).
	MaxMessageAge time.Duration
	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

func (p WebhookPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

//
// DTOs
//

// WhatsAppAgentRequest is the relay payload for one inbound message.
type WhatsAppAgentRequest struct {
	// From is the sender address in any phone formatting.
	From string `json:"from_number" binding:"required,min=1" example:"+5491122334455"`
	// Text is the message body.
	Text string `json:"text" example:"ventas 2025-12"`
	// MessageID is the upstream id used for dedupe (optional).
	MessageID string `json:"message_id" example:"wamid.HBgNNTQ5..."`
}

// WhatsAppAgentResponse is the relay reply envelope.
type WhatsAppAgentResponse struct {
	Reply string `json:"reply"`
}

// webhookEnvelope is the provider callback shape. Deliveries may arrive
// either as the event itself or wrapped one level under "body".
type webhookEnvelope struct {
	Body    *webhookEvent `json:"body"`
	Inbound *inboundMsg   `json:"whatsappInboundMessage"`
}

type webhookEvent struct {
	Inbound *inboundMsg `json:"whatsappInboundMessage"`
}

type inboundMsg struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	WAMID    string    `json:"wamid"`
	Type     string    `json:"type"`
	SendTime time.Time `json:"sendTime"`
	Text     *struct {
		Body string `json:"body"`
	} `json:"text"`
}

// webhookResponse is returned for every accepted delivery, including the
// ones that were ignored (200 stops provider retries).
type webhookResponse struct {
	Reply   string `json:"reply"`
	From    string `json:"from"`
	To      string `json:"to"`
	Ignored bool   `json:"ignored,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

//
// Handlers
//

// WhatsAppAgent godoc
// @ID          whatsappAgent
// @Summary     Relay one WhatsApp message through the identity gate
// @Description Internal endpoint for automation flows that already hold the
// @Description provider payload. Requires the X-API-Key header.
// @Tags        WhatsApp
// @Accept      json
// @Produce     json
//
// @Param       X-API-Key  header  string  true  "Internal API key"
// @Param       body       body    handlers.WhatsAppAgentRequest  true  "Inbound message"
//
// @Success     200  {object}  handlers.WhatsAppAgentResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /wa/agent [post]
func (h *Handlers) WhatsAppAgent(c *gin.Context) {
	if h.webhook.InternalAPIKey == "" || c.GetHeader("X-API-Key") != h.webhook.InternalAPIKey {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req WhatsAppAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from_number required")
		return
	}

	res, err := h.gateway.HandleInbound(c.Request.Context(), req.From, req.Text, req.MessageID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeGatewayFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, WhatsAppAgentResponse{Reply: res.Reply})
}

// WhatsAppWebhook godoc
// @ID          whatsappWebhook
// @Summary     Receive a provider callback
// @Description Verifies the delivery (HMAC signature, or the internal key
// @Description when signature checking is disabled), drops stale messages,
// @Description and forwards the text through the identity gate. Ignored
// @Description deliveries still return 200 to stop provider retries.
// @Tags        WhatsApp
// @Accept      json
// @Produce     json
//
// @Param       YCloud-Signature  header  string  false  "t=<unix>,s=<hex> HMAC header"
// @Param       X-API-Key         header  string  false  "Internal API key (bypass mode)"
//
// @Success     200  {object}  handlers.webhookResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid signature"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /webhooks/whatsapp [post]
func (h *Handlers) WhatsAppWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	if h.webhook.VerifySignature {
		sig := c.GetHeader("YCloud-Signature")
		if !webhook.VerifySignature(sig, raw, h.webhook.Secret, h.webhook.now()) {
			fail(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "invalid webhook signature")
			return
		}
	} else {
		if h.webhook.InternalAPIKey == "" || c.GetHeader("X-API-Key") != h.webhook.InternalAPIKey {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
			return
		}
	}

	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON")
		return
	}
	msg := env.Inbound
	if msg == nil && env.Body != nil {
		msg = env.Body.Inbound
	}
	if msg == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing whatsappInboundMessage")
		return
	}

	// Freshness gate: late redeliveries are acknowledged but not processed.
	if h.webhook.MaxMessageAge > 0 && !msg.SendTime.IsZero() {
		if h.webhook.now().Sub(msg.SendTime) > h.webhook.MaxMessageAge {
			ok(c, http.StatusOK, webhookResponse{From: msg.To, To: msg.From, Ignored: true, Reason: "old"})
			return
		}
	}

	var text string
	if msg.Type == "text" && msg.Text != nil {
		text = msg.Text.Body
	}

	res, err := h.gateway.HandleInbound(c.Request.Context(), msg.From, text, msg.WAMID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeGatewayFailed, err.Error())
		return
	}
	if res.Duplicate {
		middleware.LoggerFrom(c).Debug().Str("wamid", msg.WAMID).Msg("duplicate webhook delivery")
		ok(c, http.StatusOK, webhookResponse{From: msg.To, To: msg.From, Ignored: true, Reason: "duplicate"})
		return
	}
	ok(c, http.StatusOK, webhookResponse{Reply: res.Reply, From: msg.To, To: msg.From})
}
