// Package services – WhatsAppGateway
//
// This file implements the identity gate in front of the dialogue engine for
// the WhatsApp channel. Every inbound message passes, in order: message
// dedupe, phone whitelist, channel-identity upsert, and the one-time-code
// verification gate. Only verified addresses reach the dialogue engine, with
// their session pre-bound to the whitelisted customer.
//
// The gateway answers in user-facing Spanish text for every policy outcome
// (unauthorized, ambiguous, code prompts); errors are reserved for storage
// failures.

package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
	"github.com/jpereyra/contabot-backend/internal/repo"
	"github.com/jpereyra/contabot-backend/internal/session"
)

// Gate defaults, used when the corresponding field is zero.
const (
	defaultOTPTTL         = 10 * time.Minute
	defaultOTPMaxAttempts = 5
	defaultReverifyWindow = 30 * 24 * time.Hour
)

// otpRE matches a message that is exactly a six-digit code.
var otpRE = regexp.MustCompile(`^\s*(\d{6})\s*$`)

const (
	waReplyDuplicate    = "✅ Recibido."
	waReplyUnauthorized = "❌ Tu número no está autorizado para este servicio. Contactá al administrador."
	waReplyAmbiguous    = "⚠️ Tu número aparece en más de un cliente. Contactá al administrador para corregirlo."
	waReplyVerified     = "✅ Código verificado. Ahora podés hacer tu consulta (ej: *ventas 2025-12*)."
	waReplyWrongCode    = "❌ Código incorrecto o vencido. Pedí uno nuevo escribiendo: OTP"
)

// InboundResult is the outcome of one inbound WhatsApp message.
type InboundResult struct {
	// Reply is the text to send back to the sender ("" = stay silent).
	Reply string
	// Duplicate marks a redelivered message that was already processed.
	Duplicate bool
}

// WhatsAppGateway gates the WhatsApp channel and forwards verified traffic
// to the dialogue engine.
type WhatsAppGateway struct {
	DB       *gorm.DB
	Dialogue *DialogueService

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time

	// OTPTTL is how long an issued code stays valid.
	OTPTTL time.Duration
	// OTPMaxAttempts caps wrong guesses against a single code.
	OTPMaxAttempts int
	// ReverifyWindow is how long a verification lasts before the address
	// must pass the code gate again.
	ReverifyWindow time.Duration
}

func (g *WhatsAppGateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *WhatsAppGateway) otpTTL() time.Duration {
	if g.OTPTTL > 0 {
		return g.OTPTTL
	}
	return defaultOTPTTL
}

func (g *WhatsAppGateway) maxAttempts() int {
	if g.OTPMaxAttempts > 0 {
		return g.OTPMaxAttempts
	}
	return defaultOTPMaxAttempts
}

func (g *WhatsAppGateway) reverifyWindow() time.Duration {
	if g.ReverifyWindow > 0 {
		return g.ReverifyWindow
	}
	return defaultReverifyWindow
}

// digitsOnly strips everything but ASCII digits from a phone address.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HandleInbound runs the full gate for one message and returns the reply to
// send back. Policy outcomes (unauthorized, unverified, duplicates) are
// replies, not errors; only storage failures return an error.
func (g *WhatsAppGateway) HandleInbound(ctx context.Context, from, text, messageID string) (*InboundResult, error) {
	waID := digitsOnly(from)
	now := g.now()

	// At-most-once per upstream message id: the first insert wins, every
	// redelivery gets a bare acknowledgment.
	if messageID != "" {
		err := repo.MarkMessageProcessed(ctx, g.DB, messageID, waID)
		if errors.Is(err, repo.ErrDuplicate) {
			return &InboundResult{Reply: waReplyDuplicate, Duplicate: true}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	user, err := repo.FindAuthorizedUser(ctx, g.DB, waID)
	if errors.Is(err, repo.ErrNotFound) {
		return &InboundResult{Reply: waReplyUnauthorized}, nil
	}
	if errors.Is(err, repo.ErrAmbiguousIdentity) {
		return &InboundResult{Reply: waReplyAmbiguous}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := repo.UpsertChannelIdentity(ctx, g.DB, waID, user.ID, user.CustomerID, now); err != nil {
		return nil, err
	}
	identity, err := repo.GetChannelIdentity(ctx, g.DB, waID)
	if err != nil {
		return nil, err
	}

	if g.needsReverify(identity, now) {
		return g.codeGate(ctx, waID, text, now)
	}

	// Verified: bind the channel's customer into the dialogue session and
	// hand the message to the engine. The whitelist row is authoritative
	// for identity on this channel, so any stale ref is dropped.
	sessionID := "wa:" + waID
	if err := g.Dialogue.Sessions.With(sessionID, func(sc *session.Context) error {
		if sc.CustomerID != user.CustomerID {
			sc.CustomerID = user.CustomerID
			sc.CustomerRef = ""
		}
		return nil
	}); err != nil {
		return nil, err
	}

	reply, err := g.Dialogue.Handle(ctx, sessionID, text)
	if errors.Is(err, ErrEmptyMessage) {
		return &InboundResult{Reply: replyUnknown}, nil
	}
	if err != nil {
		return nil, err
	}
	return &InboundResult{Reply: reply.Reply}, nil
}

// needsReverify reports whether the address must pass the code gate before
// reaching the engine.
func (g *WhatsAppGateway) needsReverify(identity *domain.ChannelIdentity, now time.Time) bool {
	if identity.VerifiedAt == nil {
		return true
	}
	return identity.VerifiedAt.Before(now.Add(-g.reverifyWindow()))
}

// codeGate handles an unverified address: validate a submitted code, or
// issue a fresh one for anything else.
func (g *WhatsAppGateway) codeGate(ctx context.Context, waID, text string, now time.Time) (*InboundResult, error) {
	if m := otpRE.FindStringSubmatch(text); m != nil {
		ok, err := g.verifyCode(ctx, waID, m[1], now)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := repo.MarkIdentityVerified(ctx, g.DB, waID, now); err != nil {
				return nil, err
			}
			return &InboundResult{Reply: waReplyVerified}, nil
		}
		return &InboundResult{Reply: waReplyWrongCode}, nil
	}

	code, err := g.issueCode(ctx, waID, now)
	if err != nil {
		return nil, err
	}
	reply := fmt.Sprintf("🔐 Para continuar, te envié un código de verificación: *%s*.\nRespondé con ese código (6 dígitos).", code)
	return &InboundResult{Reply: reply}, nil
}

// issueCode generates a six-digit code, stores only its bcrypt hash, and
// returns the plaintext for delivery.
func (g *WhatsAppGateway) issueCode(ctx context.Context, waID string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if _, err := repo.CreateOneTimeCode(ctx, g.DB, waID, string(hash), now.Add(g.otpTTL())); err != nil {
		return "", err
	}
	return code, nil
}

// verifyCode checks a submitted code against the latest issued row. Every
// guess, right or wrong, burns an attempt; a correct guess additionally
// consumes the row so it can never validate twice.
func (g *WhatsAppGateway) verifyCode(ctx context.Context, waID, code string, now time.Time) (bool, error) {
	otp, err := repo.LatestOneTimeCode(ctx, g.DB, waID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if otp.UsedAt != nil || otp.Attempts >= g.maxAttempts() || otp.ExpiresAt.Before(now) {
		return false, nil
	}

	ok := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) == nil

	if err := repo.IncrementOTPAttempts(ctx, g.DB, otp.ID); err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	// Single-winner consumption: a concurrent guess that already consumed
	// the row turns this success into a miss.
	if err := repo.ConsumeOneTimeCode(ctx, g.DB, otp.ID, now); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
