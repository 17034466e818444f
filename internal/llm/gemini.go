// Package llm talks to the Gemini API. The API key never leaves this package.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"google.golang.org/genai"
)

// Model is satisfied by every client in this package and by the conversation
// state machine's collaborator interface.
type Model interface {
	Generate(ctx context.Context, prompt generation.Prompt) (string, error)
}

// Gemini sends chat turns, with history, through the genai client.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	g := &Gemini{model: model}
	if apiKey == "" {
		// calls fail as transport errors until a key is configured
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt generation.Prompt) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("%w: missing model API key", generation.ErrTransport)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, Contents(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", generation.ErrTransport, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty model response", generation.ErrTransport)
	}
	return text, nil
}

// Contents maps prompt history and text to genai contents. Assistant turns use
// the "model" role.
func Contents(prompt generation.Prompt) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prompt.History)+1)
	for _, turn := range prompt.History {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := "user"
		if turn.Speaker == generation.SpeakerAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	return append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt.Text}},
	})
}

// Instrumented records call counts and latency for the wrapped model.
type Instrumented struct {
	next    Model
	metrics *metrics.Collector
}

func Instrument(next Model, m *metrics.Collector) Model {
	if m == nil {
		return next
	}
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Generate(ctx context.Context, prompt generation.Prompt) (string, error) {
	started := time.Now()
	text, err := i.next.Generate(ctx, prompt)
	i.metrics.ObserveModelCall(prompt.Intent.String(), started, err)
	return text, err
}
