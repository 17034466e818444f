package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/extract"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"github.com/muhammadolammi/careerpath/internal/worker"
	"go.uber.org/zap"
)

type ResumeView struct {
	database.Resume
	Critique *generation.ResumeCritique `json:"critique,omitempty"`
}

// UploadResume stores an upload and queues it for analysis. Content that is
// not PDF, DOCX or plain text fails with generation.ErrUnsupportedDocument.
func (s *Service) UploadResume(ctx context.Context, userID, filename string, data []byte) (database.Resume, error) {
	mime := extract.DetectMIME(data)
	if !extract.Supported(mime) {
		return database.Resume{}, fmt.Errorf("%w: %s", generation.ErrUnsupportedDocument, mime)
	}

	id := uuid.New()
	key := storage.ResumeKey(userID, id, extract.Extension(mime))
	if err := s.objects.Upload(ctx, key, mime, data); err != nil {
		return database.Resume{}, fmt.Errorf("failed to store resume: %w", err)
	}

	resume, err := s.store.CreateResume(ctx, database.CreateResumeParams{
		ID:               id,
		UserID:           userID,
		OriginalFilename: filepath.Base(filename),
		Mime:             mime,
		SizeBytes:        int64(len(data)),
		ObjectKey:        key,
	})
	if err != nil {
		if delErr := s.objects.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return database.Resume{}, err
	}

	if err := s.jobs.Enqueue(ctx, worker.Job{ResumeID: id, UserID: userID}); err != nil {
		s.logger.Error("failed to queue resume", zap.String("resume_id", id.String()), zap.Error(err))
		if err := s.store.UpdateResumeStatus(ctx, database.UpdateResumeStatusParams{UploadStatus: worker.StatusFailed, ID: id}); err != nil {
			s.logger.Error("failed to update resume status",
				zap.String("resume_id", id.String()),
				zap.String("status", worker.StatusFailed),
				zap.Error(err),
			)
		}
		resume.UploadStatus = worker.StatusFailed
		s.publish(ctx, events.Update{Kind: events.KindResume, UserID: userID, ResumeID: id.String(), Status: worker.StatusFailed, Message: "analysis could not be queued"})
		return resume, nil
	}

	s.publish(ctx, events.Update{Kind: events.KindResume, UserID: userID, ResumeID: id.String(), Status: worker.StatusQueued, Message: "analysis queued"})
	return resume, nil
}

// Resume returns an upload with its critique once the analysis has finished.
func (s *Service) Resume(ctx context.Context, userID string, id uuid.UUID) (ResumeView, error) {
	resume, err := s.store.GetResume(ctx, id)
	if err != nil {
		return ResumeView{}, notFound(err, "resume "+id.String())
	}
	if resume.UserID != userID {
		return ResumeView{}, fmt.Errorf("resume %s: %w", id, ErrNotFound)
	}

	view := ResumeView{Resume: resume}
	row, err := s.store.GetResumeCritique(ctx, id)
	switch {
	case err == nil:
		var critique generation.ResumeCritique
		if err := json.Unmarshal(row.Critique, &critique); err != nil {
			return ResumeView{}, fmt.Errorf("decode critique: %w", err)
		}
		view.Critique = &critique
	case errors.Is(err, sql.ErrNoRows):
	default:
		return ResumeView{}, err
	}
	return view, nil
}
