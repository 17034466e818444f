package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/identity"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Service   Service
	Verifier  *identity.Verifier
	Users     identity.Users
	Hub       *events.Hub
	Metrics   *metrics.Collector
	Logger    *zap.Logger
	MaxUpload int64
}

func NewRouter(d RouterDeps) http.Handler {
	h := NewHandler(d.Service, d.Hub, d.Logger, d.MaxUpload)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(chimiddleware.Recoverer)
	if d.Metrics != nil {
		r.Use(instrument(d.Metrics))
	}
	r.Use(chimiddleware.Heartbeat("/health"))

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(d.Verifier, d.Users, d.Logger))

		r.Get("/ws", h.Updates)

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", h.Me)

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", h.ListChats)
				r.Post("/", h.CreateChat)
				r.Get("/{chatID}", h.GetChat)
				r.Delete("/{chatID}", h.DeleteChat)
				r.Put("/{chatID}/view", h.SetView)
				r.Get("/{chatID}/messages", h.ListMessages)
				r.Post("/{chatID}/messages", h.SendMessage)
			})

			r.Route("/roadmaps", func(r chi.Router) {
				r.Get("/", h.ListRoadmaps)
				r.Post("/", h.CreateRoadmap)
				r.Delete("/{roadmapID}", h.DeleteRoadmap)
			})

			r.Post("/resumes", h.UploadResume)
			r.Get("/resumes/{resumeID}", h.GetResume)

			r.Route("/admin", func(r chi.Router) {
				r.Use(identity.RequireAdmin)
				r.Get("/users", h.ListUsers)
				r.Put("/users/{userID}/role", h.SetRole)
			})
		})
	})

	return r
}
