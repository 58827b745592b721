// Package services – reply rendering
//
// This file renders the deterministic Spanish replies for each intent. The
// wording is part of the product surface (it is what customers read on
// WhatsApp), so the templates live here in one place instead of being
// scattered through the engine. Amounts are formatted in the es-AR
// convention ($1.234,56) via the locale-aware x/text printer.
package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jpereyra/contabot-backend/internal/domain"
	"github.com/jpereyra/contabot-backend/internal/nlp"
	"github.com/jpereyra/contabot-backend/internal/repo"
)

// arsPrinter renders numbers with Spanish grouping (dot thousands, comma
// decimals).
var arsPrinter = message.NewPrinter(language.Spanish)

// formatARS renders a peso amount as "$1.234,56".
func formatARS(d decimal.Decimal) string {
	return arsPrinter.Sprintf("$%.2f", d.InexactFloat64())
}

const (
	replyIdentified = "Perfecto ✅ Ya te identifiqué. Ahora decime qué necesitás: IVA (con período), ventas, compras, resultado, vencimientos, situación fiscal o documentos."
	replyNeedRef    = "Necesito tu CUIT o email para identificarte. Ej: 'cuit 30-12345678-9' o 'email nombre@dominio.com'."
	replyUnknown    = "No entendí la consulta. Podés pedir: vencimientos, IVA (con período), ventas, compras, resultado, situación fiscal o documentos."
)

// periodPrompt asks for the missing period with an intent-specific wording.
func periodPrompt(intent nlp.Intent) string {
	switch intent {
	case nlp.IntentVATSummary:
		return "¿De qué período querés el IVA? (YYYY-MM, ej: 2025-12)"
	case nlp.IntentSales:
		return "¿De qué período querés las ventas? (YYYY-MM, ej: 2025-12)"
	case nlp.IntentPurchases:
		return "¿De qué período querés las compras? (YYYY-MM, ej: 2025-12)"
	case nlp.IntentResult:
		return "¿De qué período querés el resultado? (YYYY-MM, ej: 2025-12)"
	}
	return "¿De qué período? (YYYY-MM, ej: 2025-12)"
}

// dueItemsReply lists pending due items for the selected window and appends
// the recently-lapsed warning when applicable.
func dueItemsReply(items []domain.DueItem, mode repo.DueMode, lapsed int64) string {
	var b strings.Builder
	if len(items) == 0 {
		if mode == repo.DueModeCurrentMonth {
			b.WriteString("No tenés vencimientos pendientes para este mes 🎉")
		} else {
			b.WriteString("No tenés vencimientos pendientes próximos 🎉")
		}
		if lapsed > 0 {
			fmt.Fprintf(&b, "\n⚠️ Además tenés %d vencido(s) en los últimos 30 días.", lapsed)
		}
		return b.String()
	}

	if mode == repo.DueModeCurrentMonth {
		b.WriteString("Estos son tus vencimientos de este mes:\n")
	} else {
		b.WriteString("Estos son tus próximos vencimientos:\n")
	}
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s %s → %s", it.Tax.Name, it.Period, it.DueDate.Format("2006-01-02"))
	}
	if lapsed > 0 {
		fmt.Fprintf(&b, "\n\n⚠️ Tenés %d vencido(s) en los últimos 30 días.", lapsed)
	}
	return b.String()
}

// vatReply renders the VAT position for a period.
func vatReply(s *domain.VATSummary, period string) string {
	return fmt.Sprintf(
		"IVA %s (%s): %s.\n• Débito: %s\n• Crédito: %s\n• Percepciones: %s\n• Retenciones: %s\n• Saldo: %s",
		period, s.LegalName, s.Outcome,
		formatARS(s.Debit), formatARS(s.Credit),
		formatARS(s.Perceptions), formatARS(s.Withholdings),
		formatARS(s.Balance),
	)
}

// salesReply renders the sales summary for a period.
func salesReply(s *domain.SalesSummary, period string) string {
	return fmt.Sprintf(
		"Ventas %s (%s):\n• Neto: %s\n• IVA: %s\n• Total: %s",
		period, s.LegalName, formatARS(s.Net), formatARS(s.VAT), formatARS(s.Total),
	)
}

// purchasesReply renders the purchases summary for a period.
func purchasesReply(s *domain.PurchasesSummary, period string) string {
	return fmt.Sprintf(
		"Compras %s (%s):\n• Neto: %s\n• IVA: %s\n• Total: %s",
		period, s.LegalName, formatARS(s.Net), formatARS(s.VAT), formatARS(s.Total),
	)
}

// resultReply renders the net result for a period, labeling it as a gain or
// a loss.
func resultReply(s *domain.ResultSummary, period string) string {
	state := "GANANCIA"
	if s.Result.IsNegative() {
		state = "PÉRDIDA"
	}
	return fmt.Sprintf(
		"Resultado %s (%s): %s\n• Ventas: %s\n• Compras: %s\n• Resultado: %s",
		period, s.LegalName, state,
		formatARS(s.SalesTotal), formatARS(s.PurchasesTotal), formatARS(s.Result),
	)
}

// fiscalStatusReply lists the taxes assigned to the customer.
func fiscalStatusReply(assignments []domain.TaxAssignment) string {
	if len(assignments) == 0 {
		return "No tengo impuestos asignados a tu cliente todavía. Decime cuáles corresponde cargar (ej: Monotributo + IIBB) y lo registramos."
	}
	var b strings.Builder
	b.WriteString("Tu situación fiscal (impuestos asociados):")
	for _, a := range assignments {
		if a.Tax.Periodicity != "" {
			fmt.Fprintf(&b, "\n- %s (%s)", a.Tax.Name, a.Tax.Periodicity)
		} else {
			fmt.Fprintf(&b, "\n- %s", a.Tax.Name)
		}
	}
	return b.String()
}

// documentsReply lists the customer's documents, embedding file links when
// available.
func documentsReply(docs []domain.Document) string {
	if len(docs) == 0 {
		return "No tengo documentos cargados para tu cliente todavía."
	}
	var b strings.Builder
	b.WriteString("Documentos disponibles:")
	for _, d := range docs {
		date := d.CreatedAt
		if d.DocumentDate != nil {
			date = *d.DocumentDate
		}
		if d.FileURL != nil && *d.FileURL != "" {
			fmt.Fprintf(&b, "\n- [%s] [%s](%s) (%s)", d.Kind, d.Title, *d.FileURL, date.Format("2006-01-02"))
		} else {
			fmt.Fprintf(&b, "\n- [%s] %s (%s)", d.Kind, d.Title, date.Format("2006-01-02"))
		}
	}
	return b.String()
}
