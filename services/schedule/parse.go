// File: services/schedule/parse.go
package schedule

import (
	"strings"
	"time"
)

// closedMarkers are the upstream values meaning a day has no attention.
var closedMarkers = map[string]bool{
	"NO DISPONIBLE": true,
	"CERRADO":       true,
	"NO ATIENDE":    true,
	"-":             true,
	"N/A":           true,
	"":              true,
}

var clockLayouts = []string{"03:04 PM", "03:04PM", "15:04"}

// ParseClock parses a wall-clock time in HH:MM AM/PM or 24h HH:MM form.
func ParseClock(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseRange parses a day range like "09:00-18:00" or "9:00 AM - 6:00 PM".
func ParseRange(s string) (open, close time.Time, ok bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, time.Time{}, false
	}
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), "-")
	if len(parts) != 2 {
		parts = strings.Split(s, " - ")
		if len(parts) != 2 {
			return time.Time{}, time.Time{}, false
		}
	}
	open, okOpen := ParseClock(parts[0])
	close, okClose := ParseClock(parts[1])
	if !okOpen || !okClose {
		return time.Time{}, time.Time{}, false
	}
	return open, close, true
}

// IsClosedMarker reports whether a schedule entry marks the day unavailable.
func IsClosedMarker(s string) bool {
	return closedMarkers[strings.ToUpper(strings.TrimSpace(s))]
}

// minutesOfDay collapses a parsed clock to minutes since midnight for
// ordering comparisons.
func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
