// Package worker analyses uploaded resumes off the job queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/extract"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"go.uber.org/zap"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const DefaultModelTimeout = 60 * time.Second

type Job struct {
	ResumeID uuid.UUID `json:"resume_id"`
	UserID   string    `json:"user_id"`
}

// Store is the part of the database the processor touches.
type Store interface {
	GetResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	UpdateResumeStatus(ctx context.Context, arg database.UpdateResumeStatusParams) error
	CreateOrUpdateResumeCritique(ctx context.Context, arg database.CreateOrUpdateResumeCritiqueParams) error
}

type Processor struct {
	store     Store
	objects   storage.ObjectStore
	model     generation.Generator
	events    events.Publisher
	metrics   *metrics.Collector
	logger    *zap.Logger
	retryWait time.Duration
	timeout   time.Duration
}

type ProcessorOption func(*Processor)

// WithRetryWait sets the base backoff between retries.
func WithRetryWait(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.retryWait = d }
}

// WithModelTimeout bounds each model attempt. A timeout is a transport failure.
func WithModelTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.timeout = d }
}

func WithMetrics(m *metrics.Collector) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

func NewProcessor(store Store, objects storage.ObjectStore, model generation.Generator, pub events.Publisher, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:     store,
		objects:   objects,
		model:     model,
		events:    pub,
		logger:    logger,
		retryWait: 500 * time.Millisecond,
		timeout:   DefaultModelTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one analysis: download, extract, critique, persist. The
// resume ends up completed or failed, and the owner hears about each step.
func (p *Processor) Process(ctx context.Context, job Job) error {
	log := p.logger.With(zap.String("resume_id", job.ResumeID.String()))

	resume, err := p.store.GetResume(ctx, job.ResumeID)
	if err != nil {
		p.observe(StatusFailed)
		return fmt.Errorf("error getting resume %s: %w", job.ResumeID, err)
	}
	userID := resume.UserID

	p.setStatus(ctx, resume.ID, userID, StatusProcessing, "analysis started", nil)

	critique, err := p.analyse(ctx, resume)
	if err != nil {
		log.Warn("resume analysis failed", zap.Error(err))
		p.setStatus(ctx, resume.ID, userID, StatusFailed, failureMessage(err), nil)
		p.observe(StatusFailed)
		return err
	}

	payload, err := json.Marshal(critique)
	if err != nil {
		p.setStatus(ctx, resume.ID, userID, StatusFailed, "analysis failed", nil)
		p.observe(StatusFailed)
		return fmt.Errorf("failed to marshal critique: %w", err)
	}

	_, err = retry(ctx, 3, p.retryWait, func() (struct{}, error) {
		return struct{}{}, p.store.CreateOrUpdateResumeCritique(ctx, database.CreateOrUpdateResumeCritiqueParams{
			ID:       uuid.New(),
			Critique: payload,
			ResumeID: resume.ID,
		})
	})
	if err != nil {
		p.setStatus(ctx, resume.ID, userID, StatusFailed, "analysis failed", nil)
		p.observe(StatusFailed)
		return fmt.Errorf("failed to save critique after retries: %w", err)
	}

	p.setStatus(ctx, resume.ID, userID, StatusCompleted, fmt.Sprintf("Resume analysed: scored %d/100", critique.Score), payload)
	p.observe(StatusCompleted)
	log.Info("resume analysed", zap.Int("score", critique.Score))
	return nil
}

func (p *Processor) analyse(ctx context.Context, resume database.Resume) (generation.ResumeCritique, error) {
	data, err := retry(ctx, 3, p.retryWait, func() ([]byte, error) {
		return p.objects.Download(ctx, resume.ObjectKey)
	})
	if err != nil {
		return generation.ResumeCritique{}, fmt.Errorf("file download error: %w", err)
	}

	text, err := extract.Text(resume.Mime, data)
	if err != nil {
		return generation.ResumeCritique{}, fmt.Errorf("text extraction error: %w", err)
	}

	// only transport failures are worth another attempt
	var result generation.Result
	for attempt := 0; attempt < 2; attempt++ {
		result, err = p.critique(ctx, text)
		if err == nil || !errors.Is(err, generation.ErrTransport) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return generation.ResumeCritique{}, err
	}
	if p.metrics != nil {
		p.metrics.Generations.WithLabelValues(generation.ResumeCritiqueRequest.String(), string(result.Kind)).Inc()
	}
	return *result.Critique, nil
}

func (p *Processor) critique(ctx context.Context, text string) (generation.Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return generation.Run(ctx, p.model, generation.ResumeCritiqueRequest, text)
}

func (p *Processor) setStatus(ctx context.Context, id uuid.UUID, userID, status, message string, payload json.RawMessage) {
	err := p.store.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{UploadStatus: status, ID: id})
	if err != nil {
		p.logger.Error("failed to update resume status",
			zap.String("resume_id", id.String()),
			zap.String("status", status),
			zap.Error(err),
		)
	}
	if p.events == nil {
		return
	}
	err = p.events.Publish(ctx, events.Update{
		Kind:      events.KindResume,
		UserID:    userID,
		ResumeID:  id.String(),
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	if err != nil {
		p.logger.Warn("failed to publish update", zap.String("resume_id", id.String()), zap.Error(err))
	}
}

func (p *Processor) observe(status string) {
	if p.metrics != nil {
		p.metrics.ResumeJobs.WithLabelValues(status).Inc()
	}
}

func failureMessage(err error) string {
	switch generation.KindOf(err) {
	case generation.ErrorKindUnsupportedDocument:
		return "unsupported document format"
	case generation.ErrorKindMalformedResponse:
		return "the assistant returned an unreadable analysis"
	case generation.ErrorKindTransport:
		return "could not reach the assistant"
	default:
		return "analysis failed"
	}
}

// retry retries fn up to attempts times with linear backoff, giving up early
// when ctx is done.
func retry[T any](ctx context.Context, attempts int, wait time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait * time.Duration(i+1)):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
