// Package api provides the HTTP and WebSocket surface of the CareerPath server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/app"
	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/identity"
	"go.uber.org/zap"
)

// Service is the application surface the handlers drive.
type Service interface {
	ListChats(ctx context.Context, userID string) ([]database.Chat, error)
	CreateChat(ctx context.Context, userID string) (database.Chat, error)
	DeleteChat(ctx context.Context, userID string, chatID uuid.UUID) error
	Snapshot(ctx context.Context, userID string, chatID uuid.UUID) (conversation.Snapshot, error)
	SetView(ctx context.Context, userID string, chatID uuid.UUID, view conversation.View) (conversation.Snapshot, error)
	Messages(ctx context.Context, userID string, chatID uuid.UUID) ([]database.Message, error)
	SendMessage(ctx context.Context, userID string, chatID uuid.UUID, text string, mode generation.Mode) (conversation.Snapshot, error)

	GenerateRoadmap(ctx context.Context, userID, goal string) (app.SavedRoadmap, error)
	ListRoadmaps(ctx context.Context, userID string) ([]app.SavedRoadmap, error)
	DeleteRoadmap(ctx context.Context, userID string, id uuid.UUID) error

	UploadResume(ctx context.Context, userID, filename string, data []byte) (database.Resume, error)
	Resume(ctx context.Context, userID string, id uuid.UUID) (app.ResumeView, error)

	ListUsers(ctx context.Context) ([]database.User, error)
	SetRole(ctx context.Context, userID, role string) (database.User, error)
}

// Handler provides common handler utilities.
type Handler struct {
	svc       Service
	hub       *events.Hub
	logger    *zap.Logger
	validate  *validator.Validate
	maxUpload int64
}

func NewHandler(svc Service, hub *events.Hub, logger *zap.Logger, maxUpload int64) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handler{svc: svc, hub: hub, logger: logger, validate: v, maxUpload: maxUpload}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

func principal(r *http.Request) identity.Principal {
	p, _ := identity.FromContext(r.Context())
	return p
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, generation.ErrEmptyInput):
		Error(w, http.StatusBadRequest, "input must not be empty")
	case errors.Is(err, app.ErrInvalidRole):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, conversation.ErrBusy):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, generation.ErrUnsupportedDocument):
		Error(w, http.StatusUnsupportedMediaType, "unsupported document format: upload a PDF, DOCX or plain text file")
	case errors.Is(err, generation.ErrMalformedResponse):
		Error(w, http.StatusBadGateway, "the assistant returned an unreadable response, please try again")
	case errors.Is(err, generation.ErrTransport):
		Error(w, http.StatusServiceUnavailable, conversation.ConnectionErrorText)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, principal(r))
}
