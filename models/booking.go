package models

// TenantContext carries the per-tenant, per-session configuration that the
// orchestrator supplies with every turn. Optional fields take their
// documented defaults in ApplyDefaults.
type TenantContext struct {
	TenantID        int    `json:"id_empresa"`
	DurationMinutes int    `json:"duracion_cita_minutos"`
	Slots           int    `json:"slots"`
	BookForAssignee bool   `json:"agendar_usuario"`
	BookForBranch   bool   `json:"agendar_sucursal"`
	AssigneeUserID  int    `json:"usuario_id"`
	AssigneeEmail   string `json:"correo_usuario"`
	ChatbotID       int    `json:"id_chatbot"`
	Personality     string `json:"personalidad"`
	ProspectID      int    `json:"id_prospecto"`
	SessionID       int    `json:"session_id"`
}

// ApplyDefaults fills absent optional fields.
func (t *TenantContext) ApplyDefaults() {
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = 60
	}
	if t.Slots <= 0 {
		t.Slots = 60
	}
	if t.AssigneeUserID <= 0 {
		t.AssigneeUserID = 1
	}
	if t.Personality == "" {
		t.Personality = "amable, profesional y eficiente"
	}
}

// BookingRequest is one calendar-event creation request, assembled per tool
// invocation. It is never persisted.
type BookingRequest struct {
	Tenant        TenantContext
	Service       string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM AM/PM or HH:MM
	CustomerName  string
	CustomerEmail string
}

// ValidationResult is the outcome of the schedule validation rules.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// AvailabilityResult is the outcome of a live availability check.
type AvailabilityResult struct {
	Available bool
	Reason    string
}

// BookingResult is the typed outcome of a calendar-event write.
type BookingResult struct {
	Success        bool
	Message        string
	ErrorKind      string // timeout, http_<status>, connection_error, api_error, invalid_datetime, unknown_error
	MeetingLink    string
	CalendarSynced bool
}

// Recommendation is what the availability tool returns to the agent.
type Recommendation struct {
	Text        string
	Suggestions []SlotSuggestion
	Total       int
}
