// File: services/agent/tools.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"agendia/models"
	"agendia/services/booking"
	"agendia/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const (
	toolCheckAvailability = "check_availability"
	toolCreateBooking     = "create_booking"
)

// Recommender answers availability questions for a slot or suggests slots.
type Recommender interface {
	Recommend(ctx context.Context, tenant models.TenantContext, dateStr, timeStr string) models.Recommendation
}

// BookingCreator runs the full booking pipeline ending in the single
// calendar write.
type BookingCreator interface {
	Create(ctx context.Context, req models.BookingRequest) models.BookingResult
}

// Toolset dispatches the model's function calls to the scheduling services
// and renders their results as user-facing Spanish text.
type Toolset struct {
	Recommender Recommender
	Bookings    BookingCreator
}

// Declarations returns the function declarations exposed to the model.
func (t *Toolset) Declarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: toolCheckAvailability,
				Description: "Consulta horarios disponibles para una cita/reunión y fecha (y opcionalmente hora). " +
					"Si el cliente indicó una hora concreta, pásala en time para consultar ese slot exacto. " +
					"Sin time se devuelven sugerencias para hoy/mañana.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"service": {Type: genai.TypeString, Description: "Motivo de la reunión o nombre del servicio (ej: demostración, consulta)"},
						"date":    {Type: genai.TypeString, Description: "Fecha en formato ISO (YYYY-MM-DD)"},
						"time":    {Type: genai.TypeString, Description: "Hora opcional en formato HH:MM AM/PM o 24h"},
					},
					Required: []string{"service", "date"},
				},
			},
			{
				Name: toolCreateBooking,
				Description: "Crea una nueva cita (evento en calendario) con validación y confirmación real. " +
					"Úsala SOLO cuando tengas todos los datos: motivo, fecha (YYYY-MM-DD), hora (HH:MM AM/PM), " +
					"nombre completo del cliente y su email.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"service":          {Type: genai.TypeString, Description: "Motivo de la reunión o servicio"},
						"date":             {Type: genai.TypeString, Description: "Fecha de la cita (YYYY-MM-DD)"},
						"time":             {Type: genai.TypeString, Description: "Hora de la cita (HH:MM AM/PM)"},
						"customer_name":    {Type: genai.TypeString, Description: "Nombre completo del cliente"},
						"customer_contact": {Type: genai.TypeString, Description: "Email del cliente (ej: cliente@ejemplo.com)"},
					},
					Required: []string{"service", "date", "time", "customer_name", "customer_contact"},
				},
			},
		},
	}}
}

// Dispatch executes one function call. It returns the tool reply text and,
// for a successful booking, the meeting link to surface to the caller.
func (t *Toolset) Dispatch(ctx context.Context, tenant models.TenantContext, call genai.FunctionCall) (string, string) {
	switch call.Name {
	case toolCheckAvailability:
		return t.checkAvailability(ctx, tenant, call.Args), ""
	case toolCreateBooking:
		return t.createBooking(ctx, tenant, call.Args)
	default:
		utils.GetLogger().Warn("Agent: model called unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("La herramienta %q no existe.", call.Name), ""
	}
}

func (t *Toolset) checkAvailability(ctx context.Context, tenant models.TenantContext, args map[string]any) string {
	logger := utils.GetLogger()
	service := stringArg(args, "service")
	date := stringArg(args, "date")
	timeStr := stringArg(args, "time")

	logger.Debug("Tool check_availability",
		zap.Int("tenantID", tenant.TenantID),
		zap.String("service", service), zap.String("date", date), zap.String("time", timeStr))

	rec := t.Recommender.Recommend(ctx, tenant, date, timeStr)
	if strings.TrimSpace(rec.Text) != "" {
		return rec.Text
	}
	return fmt.Sprintf("Horarios disponibles para %s el %s. Consulta directamente para más detalles.", service, date)
}

func (t *Toolset) createBooking(ctx context.Context, tenant models.TenantContext, args map[string]any) (string, string) {
	logger := utils.GetLogger()
	service := stringArg(args, "service")
	req := models.BookingRequest{
		Tenant:        tenant,
		Service:       service,
		Date:          stringArg(args, "date"),
		Time:          stringArg(args, "time"),
		CustomerName:  stringArg(args, "customer_name"),
		CustomerEmail: stringArg(args, "customer_contact"),
	}

	logger.Debug("Tool create_booking",
		zap.Int("tenantID", tenant.TenantID),
		zap.String("service", service), zap.String("date", req.Date), zap.String("time", req.Time))

	result := t.Bookings.Create(ctx, req)
	if !result.Success {
		switch result.ErrorKind {
		case booking.ErrKindInvalidInput:
			return fmt.Sprintf("Datos inválidos: %s\n\nPor favor verifica la información.", result.Message), ""
		case booking.ErrKindSlotRejected:
			return result.Message + "\n\nPor favor elige otra fecha u hora.", ""
		default:
			message := result.Message
			if message == "" {
				message = "No se pudo confirmar la cita"
			}
			return message + "\n\nPor favor intenta nuevamente.", ""
		}
	}

	lines := []string{
		result.Message,
		"",
		"**Detalles:**",
		fmt.Sprintf("• Servicio: %s", service),
		fmt.Sprintf("• Fecha: %s", req.Date),
		fmt.Sprintf("• Hora: %s", req.Time),
		fmt.Sprintf("• Nombre: %s", req.CustomerName),
		"",
	}
	if result.MeetingLink != "" {
		lines = append(lines, fmt.Sprintf("La reunión será por videollamada. Enlace: %s", result.MeetingLink))
	} else if !result.CalendarSynced {
		lines = append(lines, "Tu cita ya está reservada. No se pudo generar el enlace de videollamada; te contactaremos con los detalles.")
	}
	lines = append(lines, "", "¡Te esperamos!")
	return strings.Join(lines, "\n"), result.MeetingLink
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
