// Agent HTTP handlers.
//
// This file exposes the direct dialogue endpoint:
//   - POST /agent   (one conversational turn against the dialogue engine)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to the application services, and translate service errors into the
// standard error envelope.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/jpereyra/contabot-backend/internal/services"
)

// maxMessageRunes caps inbound message length at the edge.
const maxMessageRunes = 2000

// Dialogue is the engine contract the agent endpoint depends on.
type Dialogue interface {
	Handle(ctx context.Context, sessionID, message string) (*services.Reply, error)
}

// Gateway is the WhatsApp gate contract the relay endpoints depend on.
type Gateway interface {
	HandleInbound(ctx context.Context, from, text, messageID string) (*services.InboundResult, error)
}

// Handlers bundles endpoint implementations with their service dependencies.
type Handlers struct {
	dialogue Dialogue
	gateway  Gateway
	webhook  WebhookPolicy
}

// New constructs the Handlers facade used by the router.
func New(dialogue Dialogue, gateway Gateway, webhook WebhookPolicy) *Handlers {
	return &Handlers{dialogue: dialogue, gateway: gateway, webhook: webhook}
}

//
// DTOs
//

// AgentRequest is the JSON payload for one dialogue turn.
type AgentRequest struct {
	// Message is the user's free-form text. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"cuánto IVA debo en 2025-12? cuit 30-12345678-9"`
	// SessionID identifies the conversation whose partial slots are reused.
	SessionID string `json:"session_id" binding:"required,min=1" example:"web:abc123"`
}

//
// Handlers
//

// Agent godoc
// @ID          agentTurn
// @Summary     Run one dialogue turn
// @Description Classifies the message, fills the customer/period slots using
// @Description the session's accumulated state, and either answers the query
// @Description or asks for the missing slot.
// @Tags        Agent
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AgentRequest  true  "Dialogue turn payload"
//
// @Success     200  {object}  services.Reply         "Turn outcome"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /agent [post]
func (h *Handlers) Agent(c *gin.Context) {
	ctx := c.Request.Context()

	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message and session_id required")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		return
	}

	reply, err := h.dialogue.Handle(ctx, strings.TrimSpace(req.SessionID), message)
	if err != nil {
		if err == services.ErrEmptyMessage {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, reply)
}
