// File: services/schedule/recommend.go
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agendia/models"
	"agendia/utils"

	"go.uber.org/zap"
)

// Spanish weekday names for suggestion formatting, Sunday first to match
// time.Weekday.
var dayNamesTitle = []string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

const suggestFallback = "No pude obtener sugerencias ahora. Indica una fecha y hora que prefieras y la verifico."

// Recommend produces slot recommendations for the availability tool. With a
// concrete date and time it answers for that exact slot; for dates beyond
// today/tomorrow it declines to fabricate suggestions (the upstream source
// only covers those two days); otherwise it formats the upstream suggestion
// list, falling back to a generic prompt on failure.
func (v *DefaultValidator) Recommend(ctx context.Context, tenant models.TenantContext, dateStr, timeStr string) models.Recommendation {
	logger := utils.GetLogger()

	now := v.now()
	todayISO := now.Format("2006-01-02")
	tomorrowISO := now.AddDate(0, 0, 1).Format("2006-01-02")

	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	if dateStr != "" && timeStr != "" {
		availability := v.CheckAvailability(ctx, tenant, dateStr, timeStr)
		if availability.Available {
			return models.Recommendation{
				Text: fmt.Sprintf("El %s a las %s está disponible. ¿Confirmamos la cita?", dateStr, timeStr),
			}
		}
		reason := availability.Reason
		if reason == "" {
			reason = "Ese horario no está disponible."
		}
		return models.Recommendation{Text: reason + " ¿Te gustaría que te sugiera otros horarios?"}
	}

	if dateStr != "" {
		if date, err := time.ParseInLocation("2006-01-02", dateStr, v.Location); err == nil {
			iso := date.Format("2006-01-02")
			if iso != todayISO && iso != tomorrowISO {
				return models.Recommendation{Text: "Para esa fecha indica una hora que prefieras y la verifico."}
			}
		}
	}

	reply, err := v.API.SuggestSlots(ctx, tenant)
	if err != nil {
		logger.Warn("Recommend: suggestion lookup failed, using fallback",
			zap.Int("tenantID", tenant.TenantID), zap.Error(err))
		return models.Recommendation{Text: suggestFallback}
	}
	if !reply.Success || reply.Total <= 0 || len(reply.Suggestions) == 0 {
		return models.Recommendation{Text: suggestFallback}
	}

	lines := make([]string, 0, len(reply.Suggestions))
	for i, s := range reply.Suggestions {
		if s.Day == "" || s.ReadableTime == "" {
			continue
		}
		var text string
		switch s.Day {
		case "hoy":
			text = fmt.Sprintf("Hoy a las %s", s.ReadableTime)
		case "mañana":
			text = fmt.Sprintf("Mañana a las %s", s.ReadableTime)
		default:
			text = formatDatedSuggestion(s)
		}
		if !s.IsAvailable() {
			text += " (ocupado)"
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, text))
	}
	if len(lines) == 0 {
		return models.Recommendation{Text: suggestFallback}
	}

	header := reply.Message
	if header == "" {
		header = "Horarios sugeridos:"
	}
	return models.Recommendation{
		Text:        header + "\n\n" + strings.Join(lines, "\n"),
		Suggestions: reply.Suggestions,
		Total:       reply.Total,
	}
}

func formatDatedSuggestion(s models.SlotSuggestion) string {
	if s.StartsAt != "" {
		if starts, err := time.Parse("2006-01-02 15:04:05", s.StartsAt); err == nil {
			return fmt.Sprintf("%s %s a las %s",
				dayNamesTitle[int(starts.Weekday())], starts.Format("02/01"), s.ReadableTime)
		}
	}
	return fmt.Sprintf("%s a las %s", s.Day, s.ReadableTime)
}
