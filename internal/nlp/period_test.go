package nlp

import (
	"strings"
	"testing"
	"time"
)

// fixed reference instant: 2025-07-15
var refNow = time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)

func TestFindPeriod_LiteralToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"iva 2025-12", "2025-12", true},
		{"dame el resumen de 2024-01 por favor", "2024-01", true},
		{"2025-13", "", false}, // month out of range
		{"1999-05", "", false}, // year outside 20xx
		{"sin periodo", "", false},
	}
	for _, tc := range cases {
		p, ok := FindPeriod(tc.in)
		if ok != tc.ok {
			t.Fatalf("FindPeriod(%q) ok=%v want %v", tc.in, ok, tc.ok)
		}
		if ok && p.String() != tc.want {
			t.Fatalf("FindPeriod(%q) = %s want %s", tc.in, p, tc.want)
		}
	}
}

func TestParsePeriodText_LiteralWinsOverEverything(t *testing.T) {
	res := ParsePeriodText("ventas de diciembre 2025-03", refNow)
	if res.Period == nil || res.Period.String() != "2025-03" {
		t.Fatalf("expected literal fast path, got %+v", res)
	}
	if res.Clarification != "" || res.PendingMonth != 0 {
		t.Fatalf("literal match must not produce clarification: %+v", res)
	}
}

func TestParsePeriodText_MonthWithYear(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"iva noviembre 2025", "2025-11"},
		{"iva nov 2025", "2025-11"},
		{"ventas de septiembre de 2024", "2024-09"},
		{"sept 2024", "2024-09"},
		{"compras AGOSTO 2023", "2023-08"},
	}
	for _, tc := range cases {
		res := ParsePeriodText(tc.in, refNow)
		if res.Period == nil || res.Period.String() != tc.want {
			t.Fatalf("ParsePeriodText(%q) = %+v want %s", tc.in, res, tc.want)
		}
	}
}

func TestParsePeriodText_BareMonthAsksForYear(t *testing.T) {
	res := ParsePeriodText("iva diciembre", refNow)
	if res.Period != nil {
		t.Fatalf("bare month must not resolve a period: %+v", res)
	}
	if res.PendingMonth != time.December {
		t.Fatalf("pending month = %v want December", res.PendingMonth)
	}
	if !strings.Contains(res.Clarification, "diciembre") {
		t.Fatalf("clarification should mention the month: %q", res.Clarification)
	}
	if !strings.Contains(res.Clarification, "2025-12") {
		t.Fatalf("clarification should embed a current-year example: %q", res.Clarification)
	}
}

func TestParsePeriodText_AccentedInput(t *testing.T) {
	res := ParsePeriodText("el próximo mes", refNow)
	if res.Period == nil || res.Period.String() != "2025-08" {
		t.Fatalf("accented relative phrase: got %+v", res)
	}
}

func TestParsePeriodText_RelativePhrases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"este mes", "2025-07"},
		{"resumen del mes actual", "2025-07"},
		{"mes pasado", "2025-06"},
		{"el mes anterior", "2025-06"},
		{"mes que viene", "2025-08"},
		{"proximo mes", "2025-08"},
		{"mes siguiente", "2025-08"},
	}
	for _, tc := range cases {
		res := ParsePeriodText(tc.in, refNow)
		if res.Period == nil || res.Period.String() != tc.want {
			t.Fatalf("ParsePeriodText(%q) = %+v want %s", tc.in, res, tc.want)
		}
	}
}

func TestParsePeriodText_YearWraparound(t *testing.T) {
	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	res := ParsePeriodText("mes pasado", jan)
	if res.Period == nil || res.Period.String() != "2024-12" {
		t.Fatalf("january - 1 month: got %+v", res)
	}

	dec := time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC)
	res = ParsePeriodText("mes que viene", dec)
	if res.Period == nil || res.Period.String() != "2026-01" {
		t.Fatalf("december + 1 month: got %+v", res)
	}
}

func TestParsePeriodText_NothingRecognized(t *testing.T) {
	res := ParsePeriodText("hola, como va todo?", refNow)
	if res.Period != nil || res.Clarification != "" || res.PendingMonth != 0 {
		t.Fatalf("expected zero result, got %+v", res)
	}
}

func TestFindBareYear(t *testing.T) {
	if y, ok := FindBareYear("  2025 "); !ok || y != 2025 {
		t.Fatalf("FindBareYear: got %d %v", y, ok)
	}
	if _, ok := FindBareYear("2025 por favor"); ok {
		t.Fatalf("year embedded in a sentence must not match")
	}
	if _, ok := FindBareYear("1999"); ok {
		t.Fatalf("non-20xx year must not match")
	}
}

func TestAddMonths(t *testing.T) {
	y, m := AddMonths(2025, time.January, -1)
	if y != 2024 || m != time.December {
		t.Fatalf("AddMonths(-1) = %d-%d", y, m)
	}
	y, m = AddMonths(2025, time.December, 1)
	if y != 2026 || m != time.January {
		t.Fatalf("AddMonths(+1) = %d-%d", y, m)
	}
}
