// File: services/agent/prompt.go
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agendia/models"
	"agendia/services/resilience"
	"agendia/services/schedule"
	"agendia/services/upstream"
	"agendia/utils"

	"go.uber.org/zap"
)

// ScheduleFetcher reads a tenant's weekly meeting schedule (cached).
type ScheduleFetcher interface {
	FetchSchedule(ctx context.Context, tenantID int) (models.WeeklySchedule, error)
}

// PromptBuilder assembles the per-tenant system prompt from the business
// context, the FAQ set and the weekly schedule. Each section fails open: a
// missing source just leaves its section out rather than blocking the chat.
type PromptBuilder struct {
	API       upstream.API
	Schedules ScheduleFetcher
	Location  *time.Location

	ContextCache *resilience.Cache[string]
	FAQCache     *resilience.Cache[string]

	// Now is the clock source; tests pin it. Nil means time.Now.
	Now func() time.Time
}

func (b *PromptBuilder) now() time.Time {
	if b.Now != nil {
		return b.Now().In(b.Location)
	}
	return time.Now().In(b.Location)
}

// BuildSystemPrompt renders the full system prompt for one tenant.
func (b *PromptBuilder) BuildSystemPrompt(ctx context.Context, tenant models.TenantContext) (string, error) {
	now := b.now()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Eres un asistente de agendamiento de citas comerciales. Tu personalidad es: %s.\n\n", tenant.Personality)

	fmt.Fprintf(&sb, "Fecha actual: %s (%s). Hora actual: %s.\n",
		now.Format("2006-01-02"), now.Format("02/01/2006"), now.Format("03:04 PM"))
	fmt.Fprintf(&sb, "Las citas duran %d minutos.\n\n", tenant.DurationMinutes)

	sb.WriteString("Horario de atención para reuniones:\n")
	sb.WriteString(b.scheduleSection(ctx, tenant.TenantID))
	sb.WriteString("\n\n")

	if businessContext := b.businessContext(ctx, tenant.TenantID); businessContext != "" {
		sb.WriteString("Información del negocio:\n")
		sb.WriteString(businessContext)
		sb.WriteString("\n\n")
	}

	if faqs := b.faqSection(ctx, tenant.ChatbotID); faqs != "" {
		sb.WriteString("Preguntas frecuentes:\n")
		sb.WriteString(faqs)
		sb.WriteString("\n\n")
	}

	sb.WriteString(promptRules)
	return sb.String(), nil
}

const promptRules = `Reglas:
- Responde siempre en español, de forma breve y clara.
- Usa la herramienta check_availability cuando el cliente pregunte por disponibilidad o proponga una fecha u hora.
- Usa la herramienta create_booking SOLO cuando tengas motivo, fecha (YYYY-MM-DD), hora (HH:MM AM/PM), nombre completo y email del cliente. Si falta algún dato, pídelo.
- Nunca inventes horarios ni confirmes citas sin usar las herramientas.
- "Hoy" y "mañana" se interpretan con la fecha actual indicada arriba.`

func (b *PromptBuilder) scheduleSection(ctx context.Context, tenantID int) string {
	weekly, err := b.Schedules.FetchSchedule(ctx, tenantID)
	if err != nil {
		utils.GetLogger().Warn("Prompt: schedule unavailable",
			zap.Int("tenantID", tenantID), zap.Error(err))
		return schedule.NoScheduleLoaded
	}
	return schedule.FormatForPrompt(weekly)
}

func (b *PromptBuilder) businessContext(ctx context.Context, tenantID int) string {
	text, err := b.ContextCache.GetOrFetch(ctx, strconv.Itoa(tenantID), func(ctx context.Context) (string, error) {
		return b.API.FetchBusinessContext(ctx, tenantID)
	})
	if err != nil {
		utils.GetLogger().Warn("Prompt: business context unavailable",
			zap.Int("tenantID", tenantID), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func (b *PromptBuilder) faqSection(ctx context.Context, chatbotID int) string {
	if chatbotID <= 0 {
		return ""
	}
	text, err := b.FAQCache.GetOrFetch(ctx, strconv.Itoa(chatbotID), func(ctx context.Context) (string, error) {
		faqs, err := b.API.FetchFAQs(ctx, chatbotID)
		if err != nil {
			return "", err
		}
		return FormatFAQs(faqs), nil
	})
	if err != nil {
		utils.GetLogger().Warn("Prompt: FAQs unavailable",
			zap.Int("chatbotID", chatbotID), zap.Error(err))
		return ""
	}
	return text
}

// FormatFAQs renders question/answer pairs with Pregunta:/Respuesta: labels
// so the model recognizes the format. Pairs with neither field are skipped.
func FormatFAQs(items []upstream.FAQ) string {
	var lines []string
	for _, item := range items {
		question := strings.TrimSpace(item.Question)
		answer := strings.TrimSpace(item.Answer)
		if question == "" && answer == "" {
			continue
		}
		if question == "" {
			question = "(sin texto)"
		}
		if answer == "" {
			answer = "(sin texto)"
		}
		lines = append(lines, "Pregunta: "+question, "Respuesta: "+answer, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
