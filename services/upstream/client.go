// File: services/upstream/client.go
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agendia/models"
	"agendia/services/resilience"
)

const (
	opFetchSchedule     = "OBTENER_HORARIO_REUNIONES"
	opFetchContext      = "OBTENER_CONTEXTO_NEGOCIO"
	opCheckAvailability = "CONSULTAR_DISPONIBILIDAD"
	opSuggestSlots      = "SUGERIR_HORARIOS"
	opCreateEvent       = "CREAR_EVENTO"
)

const wireDateTime = "2006-01-02 15:04:05"

// API is the read/write surface of the tenant business systems. Reads go
// through the resilient gateway; the calendar write is attempted exactly
// once.
type API interface {
	FetchSchedule(ctx context.Context, tenantID int) (models.WeeklySchedule, error)
	FetchBusinessContext(ctx context.Context, tenantID int) (string, error)
	FetchFAQs(ctx context.Context, chatbotID int) ([]FAQ, error)
	CheckAvailability(ctx context.Context, tenant models.TenantContext, start, end time.Time) (*AvailabilityReply, error)
	SuggestSlots(ctx context.Context, tenant models.TenantContext) (*SuggestReply, error)
	CreateEvent(ctx context.Context, in CreateEventInput) (*CreateEventReply, *resilience.CallError)
}

// FAQ is one frequently-asked question/answer pair.
type FAQ struct {
	Question string `json:"pregunta"`
	Answer   string `json:"respuesta"`
}

// AvailabilityReply is the upstream answer for one concrete window.
type AvailabilityReply struct {
	Success   bool `json:"success"`
	Available bool `json:"disponible"`
}

// SuggestReply is the upstream slot-suggestion answer (today/tomorrow only).
type SuggestReply struct {
	Success     bool                    `json:"success"`
	Suggestions []models.SlotSuggestion `json:"sugerencias"`
	Message     string                  `json:"mensaje"`
	Total       int                     `json:"total"`
}

// CreateEventInput carries one calendar-event creation.
type CreateEventInput struct {
	TenantID      int
	AssigneeID    int
	ProspectID    int
	Title         string
	Start         time.Time
	End           time.Time
	CustomerEmail string
	AssigneeEmail string
	BookAssignee  int
}

// CreateEventReply is the write endpoint's application-level answer.
type CreateEventReply struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ErrorMessage   string `json:"error"`
	MeetLink       string `json:"google_meet_link"`
	CalendarSynced bool   `json:"google_calendar_synced"`
	CalendarError  string `json:"google_calendar_error"`
}

// DefaultAPI talks to the MaravIA-style endpoints with codOpe-tagged JSON
// bodies.
type DefaultAPI struct {
	Gateway        *resilience.Gateway
	InformacionURL string
	AgendarURL     string
	CalendarioURL  string
	FAQsURL        string
}

func (a *DefaultAPI) FetchSchedule(ctx context.Context, tenantID int) (models.WeeklySchedule, error) {
	payload := map[string]any{
		"codOpe":     opFetchSchedule,
		"id_empresa": tenantID,
	}
	var reply struct {
		Success  bool                   `json:"success"`
		Schedule *models.WeeklySchedule `json:"horario_reuniones"`
	}
	if err := a.readJSON(ctx, a.InformacionURL, payload, informacionKey(tenantID), &reply); err != nil {
		return models.WeeklySchedule{}, err
	}
	if !reply.Success || reply.Schedule == nil {
		return models.WeeklySchedule{}, fmt.Errorf("fetch schedule: upstream reply without schedule for tenant %d", tenantID)
	}
	return *reply.Schedule, nil
}

func (a *DefaultAPI) FetchBusinessContext(ctx context.Context, tenantID int) (string, error) {
	payload := map[string]any{
		"codOpe":     opFetchContext,
		"id_empresa": tenantID,
	}
	var reply struct {
		Success bool   `json:"success"`
		Context string `json:"contexto_negocio"`
	}
	if err := a.readJSON(ctx, a.InformacionURL, payload, informacionKey(tenantID), &reply); err != nil {
		return "", err
	}
	if !reply.Success {
		return "", fmt.Errorf("fetch business context: upstream reply without success for tenant %d", tenantID)
	}
	return reply.Context, nil
}

func (a *DefaultAPI) FetchFAQs(ctx context.Context, chatbotID int) ([]FAQ, error) {
	payload := map[string]any{"id_chatbot": chatbotID}
	var reply struct {
		Success bool  `json:"success"`
		FAQs    []FAQ `json:"preguntas_frecuentes"`
	}
	key := fmt.Sprintf("faqs:%d", chatbotID)
	if err := a.readJSON(ctx, a.FAQsURL, payload, key, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, fmt.Errorf("fetch faqs: upstream reply without success for chatbot %d", chatbotID)
	}
	return reply.FAQs, nil
}

func (a *DefaultAPI) CheckAvailability(ctx context.Context, tenant models.TenantContext, start, end time.Time) (*AvailabilityReply, error) {
	payload := map[string]any{
		"codOpe":           opCheckAvailability,
		"id_empresa":       tenant.TenantID,
		"fecha_inicio":     start.Format(wireDateTime),
		"fecha_fin":        end.Format(wireDateTime),
		"slots":            tenant.Slots,
		"agendar_usuario":  boolFlag(tenant.BookForAssignee),
		"agendar_sucursal": boolFlag(tenant.BookForBranch),
	}
	var reply AvailabilityReply
	if err := a.readJSON(ctx, a.AgendarURL, payload, agendarKey(tenant.TenantID), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (a *DefaultAPI) SuggestSlots(ctx context.Context, tenant models.TenantContext) (*SuggestReply, error) {
	payload := map[string]any{
		"codOpe":            opSuggestSlots,
		"id_empresa":        tenant.TenantID,
		"duracion_minutos":  tenant.DurationMinutes,
		"slots":             tenant.Slots,
		"agendar_usuario":   boolFlag(tenant.BookForAssignee),
		"agendar_sucursal":  boolFlag(tenant.BookForBranch),
	}
	var reply SuggestReply
	if err := a.readJSON(ctx, a.AgendarURL, payload, agendarKey(tenant.TenantID), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// CreateEvent issues the one non-retried calendar write. The tagged CallError
// lets the booking coordinator map failures to reason codes without
// re-parsing transport errors.
func (a *DefaultAPI) CreateEvent(ctx context.Context, in CreateEventInput) (*CreateEventReply, *resilience.CallError) {
	payload := map[string]any{
		"codOpe":          opCreateEvent,
		"id_usuario":      in.AssigneeID,
		"id_prospecto":    in.ProspectID,
		"titulo":          in.Title,
		"fecha_inicio":    in.Start.Format(wireDateTime),
		"fecha_fin":       in.End.Format(wireDateTime),
		"correo_cliente":  in.CustomerEmail,
		"correo_usuario":  in.AssigneeEmail,
		"agendar_usuario": in.BookAssignee,
	}
	body, callErr := a.Gateway.PostOnce(ctx, a.CalendarioURL, payload)
	if callErr != nil {
		return nil, callErr
	}
	var reply CreateEventReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &resilience.CallError{Kind: resilience.ErrKindUnknown, Err: err}
	}
	return &reply, nil
}

func (a *DefaultAPI) readJSON(ctx context.Context, url string, payload any, circuitKey string, out any) error {
	body, callErr := a.Gateway.PostJSON(ctx, url, payload, circuitKey)
	if callErr != nil {
		return callErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode upstream reply: %w", err)
	}
	return nil
}

func informacionKey(tenantID int) string {
	return fmt.Sprintf("informacion:%d", tenantID)
}

func agendarKey(tenantID int) string {
	return fmt.Sprintf("agendar:%d", tenantID)
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
