// File: services/agent/gemini.go
package agent

import (
	"context"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator produces one model turn for a running conversation. The agent
// service owns history and tool dispatch; implementations only talk to the
// model.
type Generator interface {
	Generate(ctx context.Context, system string, tools []*genai.Tool, history []*genai.Content) (*genai.Content, error)
}

// GeminiGenerator backs the agent with a Gemini model.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

func NewGeminiGenerator(apiKey, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system string, tools []*genai.Tool, history []*genai.Content) (*genai.Content, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("gemini generate: empty history")
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.Tools = tools

	session := model.StartChat()
	session.History = history[:len(history)-1]

	resp, err := session.SendMessage(ctx, history[len(history)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini generate: empty candidates")
	}
	return resp.Candidates[0].Content, nil
}
