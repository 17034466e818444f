// Package app ties conversations, persistence, storage and the job queue
// together for the API and the CLI.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"github.com/muhammadolammi/careerpath/internal/worker"
	"go.uber.org/zap"
)

const (
	DefaultChatTitle = "New Chat"
	titleRunes       = 30
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidRole = errors.New("invalid role")
)

// Store is the persistence the service needs; *database.Queries satisfies it.
type Store interface {
	CreateChat(ctx context.Context, arg database.CreateChatParams) (database.Chat, error)
	GetChat(ctx context.Context, arg database.GetChatParams) (database.Chat, error)
	ListChats(ctx context.Context, userID string) ([]database.Chat, error)
	UpdateChatTitle(ctx context.Context, arg database.UpdateChatTitleParams) error
	DeleteChat(ctx context.Context, arg database.DeleteChatParams) (int64, error)

	CreateMessage(ctx context.Context, arg database.CreateMessageParams) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]database.Message, error)

	CreateRoadmap(ctx context.Context, arg database.CreateRoadmapParams) (database.Roadmap, error)
	ListRoadmaps(ctx context.Context, userID string) ([]database.Roadmap, error)
	DeleteRoadmap(ctx context.Context, arg database.DeleteRoadmapParams) (int64, error)

	CreateResume(ctx context.Context, arg database.CreateResumeParams) (database.Resume, error)
	GetResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	UpdateResumeStatus(ctx context.Context, arg database.UpdateResumeStatusParams) error
	GetResumeCritique(ctx context.Context, resumeID uuid.UUID) (database.ResumeCritique, error)

	ListUsers(ctx context.Context) ([]database.User, error)
	UpdateUserRole(ctx context.Context, arg database.UpdateUserRoleParams) (database.User, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, job worker.Job) error
}

type Deps struct {
	Store   Store
	Model   conversation.Model
	Objects storage.ObjectStore
	Jobs    JobQueue
	Events  events.Publisher
	Metrics *metrics.Collector
	Logger  *zap.Logger
	// Timeout bounds each model call; zero means conversation.DefaultTimeout.
	Timeout time.Duration
}

type Service struct {
	store   Store
	model   conversation.Model
	objects storage.ObjectStore
	jobs    JobQueue
	events  events.Publisher
	metrics *metrics.Collector
	logger  *zap.Logger
	timeout time.Duration

	mu    sync.Mutex
	convs map[uuid.UUID]*conversation.Conversation
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Timeout == 0 {
		d.Timeout = conversation.DefaultTimeout
	}
	return &Service{
		store:   d.Store,
		model:   d.Model,
		objects: d.Objects,
		jobs:    d.Jobs,
		events:  d.Events,
		metrics: d.Metrics,
		logger:  d.Logger,
		timeout: d.Timeout,
		convs:   make(map[uuid.UUID]*conversation.Conversation),
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// ChatTitle is the title a chat takes from its first message.
func ChatTitle(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > titleRunes {
		text = string([]rune(text)[:titleRunes])
	}
	return text + "..."
}

func (s *Service) publish(ctx context.Context, u events.Update) {
	if s.events == nil {
		return
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}
	if err := s.events.Publish(ctx, u); err != nil {
		s.logger.Warn("failed to publish update", zap.String("kind", string(u.Kind)), zap.Error(err))
	}
}

func (s *Service) countResult(intent generation.Intent, r generation.Result) {
	if s.metrics != nil && r.Kind != "" {
		s.metrics.Generations.WithLabelValues(intent.String(), string(r.Kind)).Inc()
	}
}

func marshalPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
