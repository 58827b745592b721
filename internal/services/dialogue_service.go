// Package services – DialogueService
//
// This file implements DialogueService, the rule-first dialogue engine. Each
// turn it extracts a customer reference and an accounting period from the
// message, classifies the intent with ordered keyword rules, merges the
// result with what the session already knows, and either asks for the
// missing slot or runs the query against the database.
//
// The whole turn runs under the session's per-key lock, so concurrent
// messages for the same session cannot interleave their slot updates, and a
// turn that fails on a storage error leaves the session untouched.
//
// Observability: Handle is OpenTelemetry-instrumented; the span carries the
// session id and the resolved intent.

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jpereyra/contabot-backend/internal/nlp"
	"github.com/jpereyra/contabot-backend/internal/repo"
	"github.com/jpereyra/contabot-backend/internal/session"
)

// Default dialogue limits, used when the corresponding field is zero.
const (
	defaultDueItemLimit     = 10
	defaultDocumentLimit    = 10
	defaultLapsedWindowDays = 30
	defaultFallbackTimeout  = 8 * time.Second
)

// Reply is the structured outcome of one dialogue turn.
type Reply struct {
	Intent  nlp.Intent `json:"intent"`
	Reply   string     `json:"reply"`
	Missing []string   `json:"missing"`
	Data    any        `json:"data,omitempty"`
}

// Enrichment is what a fallback classifier may contribute to a turn. Empty
// fields mean "nothing found"; a filled field is only adopted when the rule
// pass left that slot unresolved.
type Enrichment struct {
	Intent      nlp.Intent
	CustomerRef string
	Period      *nlp.Period
}

// FallbackClassifier enriches a turn that the keyword rules could not fully
// resolve. Implementations must be safe for concurrent use.
type FallbackClassifier interface {
	Classify(ctx context.Context, message string) (*Enrichment, error)
}

// DialogueService turns free-form messages into accounting answers.
type DialogueService struct {
	DB       *gorm.DB
	Sessions *session.Store

	// Fallback, when non-nil, is consulted for turns the rules leave
	// under-resolved. Its failures never fail the turn.
	Fallback        FallbackClassifier
	FallbackTimeout time.Duration

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time

	// Limits (0 = package default).
	DueItemLimit     int
	DocumentLimit    int
	LapsedWindowDays int
}

// Customer reference extraction, in priority order: an explicit label wins
// over a formatted CUIT, which wins over a bare 11-digit run.
var (
	labeledRefRE = regexp.MustCompile(`\b(?:cuit|email)\s*[:=]?\s*(\S+)`)
	dashedCuitRE = regexp.MustCompile(`\b\d{2}-\d{8}-\d\b`)
	bareCuitRE   = regexp.MustCompile(`\b\d{11}\b`)
)

// extractCustomerRef pulls a candidate reference out of the lowercased
// message, or "" when none is present.
func extractCustomerRef(lower string) string {
	if m := labeledRefRE.FindStringSubmatch(lower); m != nil {
		return strings.Trim(m[1], ".,;:!?")
	}
	if m := dashedCuitRE.FindString(lower); m != "" {
		return m
	}
	if m := bareCuitRE.FindString(lower); m != "" {
		// Bare digit runs are canonicalized so that the session stores a
		// single spelling per identity.
		return m[:2] + "-" + m[2:10] + "-" + m[10:]
	}
	return ""
}

func (s *DialogueService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DialogueService) dueLimit() int {
	if s.DueItemLimit > 0 {
		return s.DueItemLimit
	}
	return defaultDueItemLimit
}

func (s *DialogueService) docLimit() int {
	if s.DocumentLimit > 0 {
		return s.DocumentLimit
	}
	return defaultDocumentLimit
}

func (s *DialogueService) lapsedWindow() int {
	if s.LapsedWindowDays > 0 {
		return s.LapsedWindowDays
	}
	return defaultLapsedWindowDays
}

// Handle processes one message for the given session and returns the reply.
// Storage failures are returned as errors and leave the session context
// exactly as it was before the turn.
func (s *DialogueService) Handle(ctx context.Context, sessionID, message string) (*Reply, error) {
	tr := otel.Tracer("services/DialogueService")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var out *Reply
	err := s.Sessions.With(sessionID, func(sc *session.Context) error {
		r, err := s.turn(ctx, sc, message)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("dialogue.intent", string(out.Intent)))
	return out, nil
}

// turn runs the per-message pipeline against a locked session context.
func (s *DialogueService) turn(ctx context.Context, sc *session.Context, message string) (*Reply, error) {
	now := s.now()
	lower := strings.ToLower(message)
	folded := nlp.Fold(lower)

	// Slot extraction.
	ref := extractCustomerRef(lower)
	pr := nlp.ParsePeriodText(message, now)
	period := pr.Period
	intent := nlp.ClassifyIntent(message)

	// A reference with no recognizable query and no period is an
	// identification turn.
	if intent == nlp.IntentUnknown && ref != "" && period == nil {
		intent = nlp.IntentIdentify
	}

	// A bare year completes a month left pending by an earlier turn, as long
	// as no full period was found in this message.
	if period == nil && sc.HasPendingMonth() {
		if year, ok := nlp.FindBareYear(message); ok {
			period = &nlp.Period{Year: year, Month: sc.PendingMonth}
			if intent == nlp.IntentUnknown {
				intent = sc.PendingIntent
			}
			sc.ClearPending()
		}
	}

	// Fallback enrichment for turns the rules left under-resolved. It fills
	// gaps only; a slot the rules resolved is never overridden, and a
	// fallback failure never fails the turn.
	if s.Fallback != nil && s.needsEnrichment(intent, ref, period, sc) {
		timeout := s.FallbackTimeout
		if timeout <= 0 {
			timeout = defaultFallbackTimeout
		}
		fctx, cancel := context.WithTimeout(ctx, timeout)
		enr, err := s.Fallback.Classify(fctx, message)
		cancel()
		if err == nil && enr != nil {
			if intent == nlp.IntentUnknown && enr.Intent != "" && enr.Intent != nlp.IntentUnknown {
				intent = enr.Intent
			}
			if ref == "" && enr.CustomerRef != "" {
				ref = strings.ToLower(strings.TrimSpace(enr.CustomerRef))
			}
			if period == nil && enr.Period != nil {
				p := *enr.Period
				period = &p
			}
		}
	}

	// The identify intent needs no data access: acknowledge or ask.
	if intent == nlp.IntentIdentify {
		if ref == "" && sc.CustomerRef == "" && sc.CustomerID == 0 {
			return &Reply{Intent: intent, Reply: replyNeedRef, Missing: []string{"cliente_ref"}}, nil
		}
		if ref != "" {
			sc.CustomerRef = ref
			sc.CustomerID = 0
		}
		if r, err := s.resolveCustomer(ctx, sc, intent); r != nil || err != nil {
			return r, err
		}
		return &Reply{
			Intent:  intent,
			Reply:   replyIdentified,
			Missing: []string{},
			Data:    map[string]any{"id_cliente": sc.CustomerID},
		}, nil
	}

	// Persist a newly seen reference; the resolved id is invalidated so the
	// next lookup goes through resolution again.
	if ref != "" && ref != sc.CustomerRef {
		sc.CustomerRef = ref
		sc.CustomerID = 0
	}

	// Missing customer: everything past this point needs one, including a
	// turn nothing was understood from. Identification comes before the
	// unknown-intent guidance.
	if sc.CustomerRef == "" && sc.CustomerID == 0 {
		return &Reply{Intent: intent, Reply: replyNeedRef, Missing: []string{"cliente_ref"}}, nil
	}

	if intent == nlp.IntentUnknown {
		return &Reply{Intent: intent, Reply: replyUnknown, Missing: []string{}}, nil
	}

	// Missing period: remember a lone month, or ask outright.
	if intent.RequiresPeriod() && period == nil {
		if pr.PendingMonth != 0 {
			sc.SetPending(pr.PendingMonth, intent)
			return &Reply{Intent: intent, Reply: pr.Clarification, Missing: []string{"periodo"}}, nil
		}
		return &Reply{Intent: intent, Reply: periodPrompt(intent), Missing: []string{"periodo"}}, nil
	}

	if r, err := s.resolveCustomer(ctx, sc, intent); r != nil || err != nil {
		return r, err
	}

	// A satisfied period query supersedes any pending month.
	if period != nil {
		sc.ClearPending()
	}

	return s.dispatch(ctx, sc, intent, period, folded, now)
}

// needsEnrichment reports whether the rule pass left a gap the fallback
// classifier could fill.
func (s *DialogueService) needsEnrichment(intent nlp.Intent, ref string, period *nlp.Period, sc *session.Context) bool {
	if intent == nlp.IntentUnknown {
		return true
	}
	if intent.RequiresPeriod() && period == nil {
		return true
	}
	if ref == "" && sc.CustomerRef == "" && sc.CustomerID == 0 {
		return true
	}
	return false
}

// resolveCustomer ensures sc.CustomerID is populated from sc.CustomerRef.
// A reference that cannot be a CUIT or an email is dropped and answered
// with a clarification turn rather than an error.
func (s *DialogueService) resolveCustomer(ctx context.Context, sc *session.Context, intent nlp.Intent) (*Reply, error) {
	if sc.CustomerID != 0 {
		return nil, nil
	}
	id, err := repo.ResolveCustomer(ctx, s.DB, sc.CustomerRef)
	if errors.Is(err, repo.ErrInvalidReference) {
		sc.CustomerRef = ""
		return &Reply{Intent: intent, Reply: replyNeedRef, Missing: []string{"cliente_ref"}}, nil
	}
	if err != nil {
		return nil, err
	}
	sc.CustomerID = id
	return nil, nil
}

// dispatch runs the data query for a fully resolved turn.
func (s *DialogueService) dispatch(ctx context.Context, sc *session.Context, intent nlp.Intent, period *nlp.Period, folded string, now time.Time) (*Reply, error) {
	switch intent {
	case nlp.IntentDueDates:
		mode := repo.DueModeUpcoming
		if strings.Contains(folded, "este mes") || strings.Contains(folded, "en el mes") {
			mode = repo.DueModeCurrentMonth
		}
		items, err := repo.ListPendingDueItems(ctx, s.DB, sc.CustomerID, mode, s.dueLimit(), now)
		if err != nil {
			return nil, err
		}
		lapsed, err := repo.CountRecentlyLapsed(ctx, s.DB, sc.CustomerID, s.lapsedWindow(), now)
		if err != nil {
			return nil, err
		}
		return &Reply{
			Intent:  intent,
			Reply:   dueItemsReply(items, mode, lapsed),
			Missing: []string{},
			Data:    map[string]any{"vencimientos": items, "vencidos_recientes": lapsed},
		}, nil

	case nlp.IntentFiscalStatus:
		assignments, err := repo.ListTaxAssignments(ctx, s.DB, sc.CustomerID)
		if err != nil {
			return nil, err
		}
		return &Reply{
			Intent:  intent,
			Reply:   fiscalStatusReply(assignments),
			Missing: []string{},
			Data:    map[string]any{"impuestos": assignments},
		}, nil

	case nlp.IntentDocuments:
		docs, err := repo.ListDocuments(ctx, s.DB, sc.CustomerID, s.docLimit())
		if err != nil {
			return nil, err
		}
		return &Reply{
			Intent:  intent,
			Reply:   documentsReply(docs),
			Missing: []string{},
			Data:    map[string]any{"documentos": docs},
		}, nil

	case nlp.IntentVATSummary:
		p := period.String()
		sum, err := repo.GetVATSummary(ctx, s.DB, sc.CustomerID, p)
		if errors.Is(err, repo.ErrNotFound) {
			return s.noRecord(intent, "IVA", p), nil
		}
		if err != nil {
			return nil, err
		}
		return &Reply{Intent: intent, Reply: vatReply(sum, p), Missing: []string{}, Data: map[string]any{"iva": sum}}, nil

	case nlp.IntentSales:
		p := period.String()
		sum, err := repo.GetSalesSummary(ctx, s.DB, sc.CustomerID, p)
		if errors.Is(err, repo.ErrNotFound) {
			return s.noRecord(intent, "ventas", p), nil
		}
		if err != nil {
			return nil, err
		}
		return &Reply{Intent: intent, Reply: salesReply(sum, p), Missing: []string{}, Data: map[string]any{"ventas": sum}}, nil

	case nlp.IntentPurchases:
		p := period.String()
		sum, err := repo.GetPurchasesSummary(ctx, s.DB, sc.CustomerID, p)
		if errors.Is(err, repo.ErrNotFound) {
			return s.noRecord(intent, "compras", p), nil
		}
		if err != nil {
			return nil, err
		}
		return &Reply{Intent: intent, Reply: purchasesReply(sum, p), Missing: []string{}, Data: map[string]any{"compras": sum}}, nil

	case nlp.IntentResult:
		p := period.String()
		sum, err := repo.GetResultSummary(ctx, s.DB, sc.CustomerID, p)
		if errors.Is(err, repo.ErrNotFound) {
			return s.noRecord(intent, "resultado", p), nil
		}
		if err != nil {
			return nil, err
		}
		return &Reply{Intent: intent, Reply: resultReply(sum, p), Missing: []string{}, Data: map[string]any{"resultado": sum}}, nil
	}

	return &Reply{Intent: nlp.IntentUnknown, Reply: replyUnknown, Missing: []string{}}, nil
}

// noRecord is the uniform "no data for that period" reply.
func (s *DialogueService) noRecord(intent nlp.Intent, what, period string) *Reply {
	return &Reply{
		Intent:  intent,
		Reply:   "No encuentro datos de " + what + " para " + period + ". Probá con otro período (YYYY-MM).",
		Missing: []string{},
	}
}
