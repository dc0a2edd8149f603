// File: services/schedule/blocked.go
package schedule

import (
	"encoding/json"
	"strings"
	"time"

	"agendia/utils"

	"go.uber.org/zap"
)

// blockedEntry is the object form of one blackout window.
type blockedEntry struct {
	Date  string `json:"fecha"`
	Start string `json:"inicio"`
	End   string `json:"fin"`
}

// isTimeBlocked reports whether the requested clock time falls inside any
// blackout window for the given date. The descriptor is either a JSON array
// (objects or strings) or a comma-separated string list; entries that fail
// to parse are ignored, never fatal.
func isTimeBlocked(date time.Time, clock time.Time, descriptor string) bool {
	if strings.TrimSpace(descriptor) == "" {
		return false
	}

	dateStr := date.Format("2006-01-02")
	want := minutesOfDay(clock)

	var rawEntries []json.RawMessage
	if err := json.Unmarshal([]byte(descriptor), &rawEntries); err != nil {
		// CSV fallback: "2026-02-10 13:00-14:00, 2026-02-11 09:00-10:00"
		for _, part := range strings.Split(descriptor, ",") {
			if stringEntryBlocks(strings.TrimSpace(part), dateStr, want) {
				return true
			}
		}
		return false
	}

	for _, raw := range rawEntries {
		var obj blockedEntry
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Date != "" {
			if obj.Date != dateStr {
				continue
			}
			start, okStart := ParseClock(obj.Start)
			end, okEnd := ParseClock(obj.End)
			if okStart && okEnd && minutesOfDay(start) <= want && want < minutesOfDay(end) {
				utils.GetLogger().Debug("Schedule: requested time is blocked",
					zap.String("date", dateStr), zap.Int("minute", want))
				return true
			}
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if stringEntryBlocks(s, dateStr, want) {
				return true
			}
		}
	}
	return false
}

// stringEntryBlocks handles the "YYYY-MM-DD HH:MM-HH:MM" descriptor form.
func stringEntryBlocks(entry, dateStr string, want int) bool {
	if entry == "" || !strings.Contains(entry, dateStr) {
		return false
	}
	rangePart := strings.TrimSpace(strings.ReplaceAll(entry, dateStr, ""))
	start, end, ok := ParseRange(rangePart)
	if !ok {
		return false
	}
	return minutesOfDay(start) <= want && want < minutesOfDay(end)
}
