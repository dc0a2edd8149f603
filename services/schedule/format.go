// File: services/schedule/format.go
package schedule

import (
	"strings"

	"agendia/models"
)

// NoScheduleLoaded is the prompt line used when no schedule could be read.
const NoScheduleLoaded = "No hay horario cargado."

// FormatForPrompt renders a weekly schedule as the day-by-day list injected
// into the agent's system prompt.
func FormatForPrompt(weekly models.WeeklySchedule) string {
	var lines []string
	for i, name := range []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"} {
		value := strings.TrimSpace(weekly.ByWeekday(i))
		if IsClosedMarker(value) {
			lines = append(lines, "- "+name+": Cerrado")
		} else {
			lines = append(lines, "- "+name+": "+strings.ReplaceAll(value, "-", " - "))
		}
	}
	return strings.Join(lines, "\n")
}
