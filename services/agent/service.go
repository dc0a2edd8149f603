// File: services/agent/service.go
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"agendia/models"
	"agendia/services/resilience"
	"agendia/services/session"
	"agendia/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// maxToolRounds bounds how many model turns one message may take; each round
// is one model call possibly followed by tool executions.
const maxToolRounds = 4

// Service processes one conversational message end to end.
type Service interface {
	ProcessMessage(ctx context.Context, message string, sessionID int, tenant models.TenantContext) (reply, url string, err error)
}

// DefaultService runs the booking agent: it builds (and caches) the tenant's
// system prompt, replays the session history into the model and drives the
// function-calling loop against the scheduling tools. Messages of one session
// are serialized so concurrent retries cannot interleave tool side effects.
type DefaultService struct {
	Generator  Generator
	Prompts    *PromptBuilder
	History    HistoryStore
	Serializer *session.Serializer
	Tools      *Toolset

	// AgentCache holds compiled system prompts keyed by tenant id. Its TTL is
	// independent from the schedule cache: prompt inputs change rarely.
	AgentCache *resilience.Cache[string]
}

func (s *DefaultService) ProcessMessage(ctx context.Context, message string, sessionID int, tenant models.TenantContext) (string, string, error) {
	logger := utils.GetLogger()

	if strings.TrimSpace(message) == "" {
		return "No recibí tu mensaje. ¿Podrías repetirlo?", "", nil
	}
	if sessionID < 0 {
		return "", "", fmt.Errorf("sessionID must be a non-negative integer, got %d", sessionID)
	}

	var reply, url string
	err := s.Serializer.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if tenant.TenantID <= 0 {
			logger.Error("Agent: missing tenant id", zap.Int("sessionID", sessionID))
			reply = "Error de configuración: falta el identificador de la empresa."
			return nil
		}
		tenant.ApplyDefaults()
		if tenant.SessionID == 0 {
			tenant.SessionID = sessionID
		}
		if tenant.ProspectID == 0 {
			tenant.ProspectID = sessionID
		}

		system, err := s.AgentCache.GetOrFetch(ctx, strconv.Itoa(tenant.TenantID), func(ctx context.Context) (string, error) {
			return s.Prompts.BuildSystemPrompt(ctx, tenant)
		})
		if err != nil {
			logger.Error("Agent: system prompt build failed",
				zap.Int("tenantID", tenant.TenantID), zap.Error(err))
			reply = "Disculpa, tuve un problema de configuración. ¿Podrías intentar nuevamente?"
			return nil
		}

		past, err := s.History.Get(ctx, sessionID)
		if err != nil {
			logger.Warn("Agent: history load failed, starting fresh",
				zap.Int("sessionID", sessionID), zap.Error(err))
			past = nil
		}

		contents := historyToContents(past)
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []genai.Part{genai.Text(message)},
		})

		logger.Debug("Agent: invoking model",
			zap.Int("sessionID", sessionID), zap.Int("tenantID", tenant.TenantID),
			zap.Int("historyMessages", len(past)))

		reply, url, err = s.runToolLoop(ctx, system, tenant, contents)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Agent: model turn failed",
				zap.Int("sessionID", sessionID), zap.Error(err))
			reply = "Disculpa, tuve un problema al procesar tu mensaje. ¿Podrías intentar nuevamente?"
			return nil
		}

		if err := s.History.Append(ctx, sessionID,
			models.ChatMessage{Role: "user", Text: message},
			models.ChatMessage{Role: "model", Text: reply},
		); err != nil {
			logger.Warn("Agent: history save failed",
				zap.Int("sessionID", sessionID), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return reply, url, nil
}

// runToolLoop alternates model turns and tool executions until the model
// answers with plain text or the round limit is hit.
func (s *DefaultService) runToolLoop(ctx context.Context, system string, tenant models.TenantContext, contents []*genai.Content) (string, string, error) {
	decls := s.Tools.Declarations()

	var meetingLink string
	for round := 0; round < maxToolRounds; round++ {
		content, err := s.Generator.Generate(ctx, system, decls, contents)
		if err != nil {
			return "", "", err
		}
		contents = append(contents, content)

		calls := functionCalls(content)
		if len(calls) == 0 {
			reply := strings.TrimSpace(textOf(content))
			if reply == "" {
				reply = "El asistente envió una respuesta vacía, por favor intenta nuevamente."
			}
			return reply, meetingLink, nil
		}

		responses := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			text, link := s.Tools.Dispatch(ctx, tenant, call)
			if link != "" {
				meetingLink = link
			}
			responses = append(responses, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"result": text},
			})
		}
		contents = append(contents, &genai.Content{Role: "function", Parts: responses})
	}

	utils.GetLogger().Warn("Agent: tool round limit reached without a text answer",
		zap.Int("tenantID", tenant.TenantID))
	return "No recibí respuesta del asistente, por favor intenta nuevamente.", meetingLink, nil
}

func historyToContents(messages []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages)+1)
	for _, m := range messages {
		role := m.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return contents
}

func functionCalls(content *genai.Content) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, part := range content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func textOf(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
