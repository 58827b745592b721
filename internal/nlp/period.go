package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Period identifies a single accounting cycle (calendar year + month).
// Its canonical external form is "YYYY-MM", e.g. "2025-12".
type Period struct {
	Year  int
	Month time.Month
}

// String renders the canonical "YYYY-MM" form.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero value (no period resolved).
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// periodRE matches a literal period token anywhere in free text. Years are
// restricted to 20xx and months to 01-12 so that arbitrary "1234-56" digit
// runs are not mistaken for periods.
var periodRE = regexp.MustCompile(`\b(20\d{2})-(0[1-9]|1[0-2])\b`)

// monthAlt is the alternation of Spanish month names and their standard
// three-letter stems ("sept" included for September). It is applied to
// folded text, so accented input matches too.
const monthAlt = `(ene(?:ro)?|feb(?:rero)?|mar(?:zo)?|abr(?:il)?|may(?:o)?|jun(?:io)?|jul(?:io)?|ago(?:sto)?|sep(?:t)?(?:iembre)?|oct(?:ubre)?|nov(?:iembre)?|dic(?:iembre)?)`

var (
	monthYearRE = regexp.MustCompile(`\b` + monthAlt + `(?:\s+de)?\s+(20\d{2})\b`)
	monthOnlyRE = regexp.MustCompile(`\b` + monthAlt + `\b`)
	yearOnlyRE  = regexp.MustCompile(`^\s*(20\d{2})\s*$`)
)

// months maps three-letter stems (plus "sept") to month numbers. Full names
// are resolved through their stem.
var months = map[string]time.Month{
	"ene": time.January, "feb": time.February, "mar": time.March,
	"abr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dic": time.December,
}

// monthNumber resolves a matched month token (stem or full name) to its
// number. Returns 0 when the token is unknown.
func monthNumber(token string) time.Month {
	if m, ok := months[token]; ok {
		return m
	}
	if len(token) >= 3 {
		if m, ok := months[token[:3]]; ok {
			return m
		}
	}
	return 0
}

// FindPeriod scans text for a literal "YYYY-MM" token and returns it.
// The second return value reports whether a token was found.
func FindPeriod(text string) (Period, bool) {
	m := periodRE.FindStringSubmatch(text)
	if m == nil {
		return Period{}, false
	}
	var y, mo int
	fmt.Sscanf(m[1], "%d", &y)
	fmt.Sscanf(m[2], "%d", &mo)
	return Period{Year: y, Month: time.Month(mo)}, true
}

// FindBareYear matches a message consisting of exactly one 20xx year
// (surrounding whitespace allowed), used for the two-turn slot fill where
// a pending month awaits its year.
func FindBareYear(text string) (int, bool) {
	m := yearOnlyRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	var y int
	fmt.Sscanf(m[1], "%d", &y)
	return y, true
}

// AddMonths shifts a (year, month) pair by delta months, wrapping year
// boundaries in both directions (January - 1 = December of prior year).
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	total := year*12 + int(month) - 1 + delta
	return total / 12, time.Month(total%12 + 1)
}

// PeriodResult is the outcome of parsing free text for a period reference.
// Exactly one of Period or (Clarification, PendingMonth) is set, or all
// fields are zero when nothing was recognized.
type PeriodResult struct {
	// Period is the fully resolved period, when one could be determined.
	Period *Period
	// Clarification is a user-facing question asked when a month was
	// recognized without a year.
	Clarification string
	// PendingMonth holds the recognized month awaiting a year (0 if none).
	PendingMonth time.Month
}

// ParsePeriodText resolves a Spanish free-text period reference.
//
// Resolution order (first match wins):
//  1. Literal "YYYY-MM" anywhere in the text.
//  2. Month name/abbreviation followed by a 4-digit year ("nov 2025",
//     "noviembre de 2025").
//  3. Bare month name: returns a pending month plus a clarification
//     question that embeds an example for the current year.
//  4. Relative phrases: "este mes"/"mes actual", "mes pasado"/"mes
//     anterior", "mes que viene"/"proximo mes"/"mes siguiente".
//  5. Nothing recognized: zero result.
//
// now supplies the reference instant for relative phrases and for the
// clarification example; callers inject it for deterministic tests.
func ParsePeriodText(text string, now time.Time) PeriodResult {
	if p, ok := FindPeriod(text); ok {
		return PeriodResult{Period: &p}
	}

	folded := Fold(text)

	if m := monthYearRE.FindStringSubmatch(folded); m != nil {
		if mo := monthNumber(m[1]); mo != 0 {
			var y int
			fmt.Sscanf(m[2], "%d", &y)
			return PeriodResult{Period: &Period{Year: y, Month: mo}}
		}
	}

	if m := monthOnlyRE.FindStringSubmatch(folded); m != nil {
		if mo := monthNumber(m[1]); mo != 0 {
			return PeriodResult{
				Clarification: fmt.Sprintf("¿De qué año es %s? Ej: %04d-%02d", m[1], now.Year(), int(mo)),
				PendingMonth:  mo,
			}
		}
	}

	switch {
	case contains(folded, "este mes", "mes actual"):
		p := Period{Year: now.Year(), Month: now.Month()}
		return PeriodResult{Period: &p}
	case contains(folded, "mes pasado", "mes anterior"):
		y, mo := AddMonths(now.Year(), now.Month(), -1)
		return PeriodResult{Period: &Period{Year: y, Month: mo}}
	case contains(folded, "mes que viene", "proximo mes", "mes siguiente"):
		y, mo := AddMonths(now.Year(), now.Month(), +1)
		return PeriodResult{Period: &Period{Year: y, Month: mo}}
	}

	return PeriodResult{}
}

// contains reports whether s contains any of the given substrings.
func contains(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
