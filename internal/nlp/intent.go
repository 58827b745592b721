package nlp

// Intent is the closed set of business queries the assistant understands.
// The string values are part of the API contract (they appear verbatim in
// responses and in the LLM fallback exchange), so they stay in Spanish.
type Intent string

const (
	IntentFiscalStatus Intent = "situacion_fiscal"
	IntentDueDates     Intent = "vencimientos_proximos"
	IntentVATSummary   Intent = "iva_resumen_periodo"
	IntentSales        Intent = "ventas_resumen_periodo"
	IntentPurchases    Intent = "compras_resumen_periodo"
	IntentResult       Intent = "resultado_periodo"
	IntentDocuments    Intent = "documentos"
	IntentIdentify     Intent = "identify"
	IntentUnknown      Intent = "unknown"
)

// RequiresPeriod reports whether the intent cannot execute without a
// resolved accounting period.
func (i Intent) RequiresPeriod() bool {
	switch i {
	case IntentVATSummary, IntentSales, IntentPurchases, IntentResult:
		return true
	}
	return false
}

// ParseIntent validates an externally supplied intent string (e.g. from the
// LLM fallback). Unrecognized values map to (IntentUnknown, false).
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentFiscalStatus, IntentDueDates, IntentVATSummary, IntentSales,
		IntentPurchases, IntentResult, IntentDocuments, IntentIdentify,
		IntentUnknown:
		return Intent(s), true
	}
	return IntentUnknown, false
}

// intentRule binds an intent to the keywords that trigger it. Matching is
// plain substring containment on folded text.
type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules is evaluated top to bottom; the first matching category wins.
// Order matters because categories overlap: "cuánto IVA pagué" must not be
// swallowed by a later rule, and "situacion fiscal" outranks the bare "iva"
// that may appear in the same message.
var intentRules = []intentRule{
	{IntentFiscalStatus, []string{"situacion fiscal", "monotrib", "responsable"}},
	{IntentDueDates, []string{"vence", "vencim", "pendiente"}},
	{IntentSales, []string{"ventas", "venta", "factur", "ingresos"}},
	{IntentPurchases, []string{"compras", "compra", "gastos"}},
	{IntentResult, []string{"resultado", "gane", "perdi", "balance"}},
	{IntentVATSummary, []string{"iva"}},
	{IntentDocuments, []string{"document", "constancia", "ddjj"}},
}

// ClassifyIntent maps free text to an Intent by keyword containment over
// the folded (lowercase, accent-stripped) message. It never returns
// IntentIdentify: that transition is decided by the dialogue engine when a
// customer reference arrives with no other signal.
func ClassifyIntent(text string) Intent {
	folded := Fold(text)
	for _, r := range intentRules {
		if contains(folded, r.keywords...) {
			return r.intent
		}
	}
	return IntentUnknown
}
