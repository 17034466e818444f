// Package conversation owns one chat thread: its turn history, the active
// roadmap and critique, and the Idle/AwaitingResponse/Ready/Errored state
// machine that drives each model call.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/muhammadolammi/careerpath/internal/generation"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
	StateReady            State = "ready"
	StateErrored          State = "errored"
)

type View string

const (
	ViewChat    View = "chat"
	ViewRoadmap View = "roadmap"
	ViewResume  View = "resume"
)

// ConnectionErrorText is appended as the assistant turn when the model call fails.
const ConnectionErrorText = "Sorry, I had trouble connecting to the assistant. Please try again."

const DefaultTimeout = 60 * time.Second

var ErrBusy = errors.New("a response is already pending for this conversation")

// Model is the language-model collaborator.
type Model interface {
	Generate(ctx context.Context, prompt generation.Prompt) (string, error)
}

// Listener observes a conversation. Calls happen after the state update, outside
// the conversation lock, with a context detached from the submitting request.
type Listener interface {
	TurnsAppended(ctx context.Context, turns []generation.Turn)
	ResultReady(ctx context.Context, intent generation.Intent, result generation.Result)
}

type Input struct {
	Utterance string
	Mode      generation.Mode
	// Document is the extracted resume text for resume critiques.
	Document string
}

// Intent routes the input. A resume critique needs a document, so the resume
// mode without one is treated as free chat.
func (in Input) Intent() generation.Intent {
	intent := generation.DetermineIntent(in.Mode, in.Utterance)
	if intent == generation.ResumeCritiqueRequest && strings.TrimSpace(in.Document) == "" {
		return generation.FreeChat
	}
	return intent
}

// Snapshot is a copy of the externally visible conversation state.
type Snapshot struct {
	State    State                      `json:"state"`
	View     View                       `json:"view"`
	Loading  bool                       `json:"loading"`
	Pending  *generation.Turn           `json:"pending,omitempty"`
	Turns    []generation.Turn          `json:"turns"`
	Roadmap  *generation.RoadmapPlan    `json:"roadmap,omitempty"`
	Critique *generation.ResumeCritique `json:"critique,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

type Conversation struct {
	model    Model
	listener Listener
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	state    State
	view     View
	turns    []generation.Turn
	pending  *generation.Turn
	roadmap  *generation.RoadmapPlan
	critique *generation.ResumeCritique
	lastErr  string
}

type Option func(*Conversation)

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Conversation) { c.timeout = d }
}

func WithListener(l Listener) Option {
	return func(c *Conversation) { c.listener = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Conversation) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

func New(model Model, opts ...Option) *Conversation {
	return Restore(model, nil, opts...)
}

// Restore rebuilds a conversation from persisted turns so that later chat
// turns carry the earlier history as context.
func Restore(model Model, turns []generation.Turn, opts ...Option) *Conversation {
	c := &Conversation{
		model:   model,
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
		now:     time.Now,
		state:   StateIdle,
		view:    ViewChat,
		turns:   slices.Clone(turns),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs one turn. Empty input and submissions made while a response is
// pending are rejected without touching state. A model failure leaves the
// conversation Errored with an explanatory assistant turn and returns an error
// wrapping generation.ErrTransport; a malformed structured response is not an
// error, its raw text becomes the assistant turn.
func (c *Conversation) Submit(ctx context.Context, in Input) (generation.Result, error) {
	if strings.TrimSpace(in.Utterance) == "" {
		return generation.Result{}, generation.ErrEmptyInput
	}

	intent := in.Intent()
	source := in.Utterance
	if intent == generation.ResumeCritiqueRequest {
		source = in.Document
	}

	c.mu.Lock()
	if c.state == StateAwaitingResponse {
		c.mu.Unlock()
		return generation.Result{}, ErrBusy
	}
	// history is the sequence before this submission
	prompt, err := generation.BuildPrompt(intent, source, c.turns)
	if err != nil {
		c.mu.Unlock()
		return generation.Result{}, err
	}
	userTurn := generation.Turn{Speaker: generation.SpeakerUser, Text: in.Utterance, CreatedAt: c.now()}
	c.pending = &userTurn
	c.state = StateAwaitingResponse
	c.lastErr = ""
	c.mu.Unlock()

	callCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
		defer cancel()
	}

	raw, err := c.model.Generate(callCtx, prompt)
	if err != nil {
		return c.fail(ctx, intent, userTurn, err)
	}

	result := generation.Interpret(intent, raw)
	if result.Kind == generation.KindFailure {
		c.logger.Info("model response did not match the structured contract",
			zap.String("intent", intent.String()),
			zap.Int("raw_len", len(raw)),
		)
	}

	c.mu.Lock()
	if result.Roadmap != nil && result.Roadmap.RoleTitle == "" {
		result.Roadmap.RoleTitle = strings.TrimSpace(in.Utterance)
	}
	assistant := generation.Turn{Speaker: generation.SpeakerAssistant, Text: result.AssistantText(), CreatedAt: c.now()}
	c.turns = append(c.turns, userTurn, assistant)
	c.pending = nil
	c.state = StateReady
	switch {
	case result.Roadmap != nil:
		plan := result.Roadmap.Clone()
		c.roadmap = &plan
		c.view = ViewRoadmap
	case result.Critique != nil:
		critique := result.Critique.Clone()
		c.critique = &critique
		c.view = ViewResume
	}
	c.mu.Unlock()

	c.notify(ctx, intent, result, userTurn, assistant)
	return result, nil
}

func (c *Conversation) fail(ctx context.Context, intent generation.Intent, userTurn generation.Turn, cause error) (generation.Result, error) {
	if !errors.Is(cause, generation.ErrTransport) {
		cause = fmt.Errorf("%w: %w", generation.ErrTransport, cause)
	}
	c.logger.Warn("model call failed",
		zap.String("intent", intent.String()),
		zap.Error(cause),
	)

	c.mu.Lock()
	assistant := generation.Turn{Speaker: generation.SpeakerAssistant, Text: ConnectionErrorText, CreatedAt: c.now()}
	c.turns = append(c.turns, userTurn, assistant)
	c.pending = nil
	c.state = StateErrored
	c.lastErr = cause.Error()
	c.mu.Unlock()

	result := generation.Failure(generation.ErrorKindTransport, "")
	c.notify(ctx, intent, result, userTurn, assistant)
	return result, cause
}

func (c *Conversation) notify(ctx context.Context, intent generation.Intent, result generation.Result, turns ...generation.Turn) {
	if c.listener == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.listener.TurnsAppended(ctx, turns)
	if result.Kind == generation.KindStructured {
		c.listener.ResultReady(ctx, intent, result)
	}
}

// SetView switches the active tab. It never changes the turn state.
func (c *Conversation) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:   c.state,
		View:    c.view,
		Loading: c.state == StateAwaitingResponse,
		Turns:   slices.Clone(c.turns),
		Error:   c.lastErr,
	}
	if s.Turns == nil {
		s.Turns = []generation.Turn{}
	}
	if c.pending != nil {
		p := *c.pending
		s.Pending = &p
	}
	if c.roadmap != nil {
		plan := c.roadmap.Clone()
		s.Roadmap = &plan
	}
	if c.critique != nil {
		critique := c.critique.Clone()
		s.Critique = &critique
	}
	return s
}
