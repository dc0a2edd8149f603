package schedule

import (
	"testing"
	"time"
)

func TestParseClockFormats(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"10:30 AM", 10, 30, true},
		{"02:00 PM", 14, 0, true},
		{"2:00 pm", 14, 0, true},
		{"14:30", 14, 30, true},
		{"09:00", 9, 0, true},
		{" 10:00 AM ", 10, 0, true},
		{"25:00", 0, 0, false},
		{"diez y media", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseClock(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseClock(%q): ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && (got.Hour() != tc.hour || got.Minute() != tc.minute) {
			t.Errorf("ParseClock(%q) = %02d:%02d, want %02d:%02d", tc.in, got.Hour(), got.Minute(), tc.hour, tc.minute)
		}
	}
}

func TestParseRange(t *testing.T) {
	open, close, ok := ParseRange("09:00-18:00")
	if !ok || open.Hour() != 9 || close.Hour() != 18 {
		t.Fatalf("ParseRange compact form failed: %v %v %v", open, close, ok)
	}

	open, close, ok = ParseRange("9:00 AM - 6:00 PM")
	if !ok || open.Hour() != 9 || close.Hour() != 18 {
		t.Fatalf("ParseRange AM/PM form failed: %v %v %v", open, close, ok)
	}

	for _, bad := range []string{"", "CERRADO", "09:00", "lunes a viernes"} {
		if _, _, ok := ParseRange(bad); ok {
			t.Errorf("ParseRange(%q) should fail", bad)
		}
	}
}

func TestIsClosedMarker(t *testing.T) {
	for _, closed := range []string{"NO DISPONIBLE", "cerrado", "No Atiende", "-", "n/a", "", "  CERRADO  "} {
		if !IsClosedMarker(closed) {
			t.Errorf("IsClosedMarker(%q) = false, want true", closed)
		}
	}
	for _, open := range []string{"09:00-18:00", "abierto", "10:00 AM - 1:00 PM"} {
		if IsClosedMarker(open) {
			t.Errorf("IsClosedMarker(%q) = true, want false", open)
		}
	}
}

func TestIsTimeBlockedStringAndCSVForms(t *testing.T) {
	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return time.Date(0, 1, 1, h, m, 0, 0, time.UTC) }

	// JSON array of strings.
	desc := `["2026-09-08 13:00-14:00"]`
	if !isTimeBlocked(date, at(13, 30), desc) {
		t.Error("string entry should block 13:30")
	}
	if isTimeBlocked(date, at(14, 0), desc) {
		t.Error("blackout end is exclusive")
	}

	// CSV fallback.
	csv := "2026-09-08 13:00-14:00, 2026-09-09 09:00-10:00"
	if !isTimeBlocked(date, at(13, 0), csv) {
		t.Error("CSV entry should block 13:00")
	}
	if isTimeBlocked(date, at(9, 30), csv) {
		t.Error("entry for another date must not block")
	}
}

func TestIsTimeBlockedIgnoresGarbage(t *testing.T) {
	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	at := time.Date(0, 1, 1, 13, 30, 0, 0, time.UTC)

	for _, desc := range []string{
		"",
		"no es json",
		`[{"fecha":"2026-09-08","inicio":"??","fin":"14:00"}]`,
		`[42, true]`,
	} {
		if isTimeBlocked(date, at, desc) {
			t.Errorf("descriptor %q should not block", desc)
		}
	}

	// A garbage entry must not mask a valid one in the same list.
	mixed := `["basura", {"fecha":"2026-09-08","inicio":"13:00","fin":"14:00"}]`
	if !isTimeBlocked(date, at, mixed) {
		t.Error("valid entry after garbage should still block")
	}
}

func TestFormatForPrompt(t *testing.T) {
	weekly := weekdays()
	got := FormatForPrompt(weekly)
	for _, want := range []string{"- Lunes: 09:00 - 18:00", "- Sábado: 10:00 - 13:00", "- Domingo: Cerrado"} {
		if !containsLine(got, want) {
			t.Errorf("FormatForPrompt missing %q in:\n%s", want, got)
		}
	}
}

func containsLine(s, line string) bool {
	for _, l := range splitLines(s) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
