package models

// WeeklySchedule is a tenant's meeting schedule as returned by the
// informacion endpoint. Each day holds either a range like "09:00-18:00",
// a closed marker ("CERRADO", "NO DISPONIBLE", ...) or is empty.
type WeeklySchedule struct {
	Monday    string `json:"reunion_lunes"`
	Tuesday   string `json:"reunion_martes"`
	Wednesday string `json:"reunion_miercoles"`
	Thursday  string `json:"reunion_jueves"`
	Friday    string `json:"reunion_viernes"`
	Saturday  string `json:"reunion_sabado"`
	Sunday    string `json:"reunion_domingo"`

	// BlockedTimes is an ad-hoc blackout descriptor: a JSON array of
	// {fecha, inicio, fin} objects or a comma-separated list of
	// "YYYY-MM-DD HH:MM-HH:MM" strings. Unparseable entries are ignored.
	BlockedTimes string `json:"horarios_bloqueados"`
}

// ByWeekday returns the raw schedule entry for a weekday (Monday = 0).
func (s WeeklySchedule) ByWeekday(day int) string {
	switch day {
	case 0:
		return s.Monday
	case 1:
		return s.Tuesday
	case 2:
		return s.Wednesday
	case 3:
		return s.Thursday
	case 4:
		return s.Friday
	case 5:
		return s.Saturday
	case 6:
		return s.Sunday
	}
	return ""
}

// SlotSuggestion is one entry of the SUGERIR_HORARIOS response.
type SlotSuggestion struct {
	Day          string `json:"dia"`
	ReadableTime string `json:"hora_legible"`
	StartsAt     string `json:"fecha_inicio"`
	Available    *bool  `json:"disponible"`
}

// IsAvailable treats an absent flag as available, matching the upstream
// contract.
func (s SlotSuggestion) IsAvailable() bool {
	return s.Available == nil || *s.Available
}
