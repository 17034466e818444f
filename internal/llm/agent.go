package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"go.uber.org/zap"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const agentUserID = "careerpath-worker"

// Agent runs stateless prompts through an ADK llm agent. Each call gets its own
// short-lived session, so prompt history is never carried between calls.
type Agent struct {
	runner   *runner.Runner
	sessions session.Service
	appName  string
	logger   *zap.Logger
}

type AgentConfig struct {
	APIKey      string
	Model       string
	Name        string
	Description string
	Instruction string
}

func NewAgent(ctx context.Context, cfg AgentConfig, logger *zap.Logger) (*Agent, error) {
	model, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	llm, err := llmagent.New(llmagent.Config{
		Name:        cfg.Name,
		Model:       model,
		Description: cfg.Description,
		Instruction: cfg.Instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        llm.Name(),
		Agent:          llm,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Agent{
		runner:   r,
		sessions: sessions,
		appName:  llm.Name(),
		logger:   logger,
	}, nil
}

func (a *Agent) Generate(ctx context.Context, prompt generation.Prompt) (string, error) {
	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    agentUserID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to create agent session: %w", generation.ErrTransport, err)
	}
	sess := created.Session
	defer func() {
		err := a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   sess.AppName(),
			UserID:    sess.UserID(),
			SessionID: sess.ID(),
		})
		if err != nil {
			a.logger.Warn("failed to delete agent session", zap.String("session_id", sess.ID()), zap.Error(err))
		}
	}()

	stream := a.runner.Run(ctx, sess.UserID(), sess.ID(), &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt.Text}},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("%w: agent stream: %w", generation.ErrTransport, err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}
	if output == "" {
		return "", fmt.Errorf("%w: empty agent response", generation.ErrTransport)
	}
	return output, nil
}
