package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadolammi/careerpath/internal/api"
	"github.com/muhammadolammi/careerpath/internal/app"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/identity"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"github.com/muhammadolammi/careerpath/internal/worker"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrate bool
	var maxUpload int64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := cfg.RequireServe(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg.DBURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if migrate {
				if err := migrateDB(ctx, db, logger); err != nil {
					return err
				}
			}
			queries := database.New(db)

			verifier, err := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}
			objects, err := storage.NewR2(ctx, cfg.R2)
			if err != nil {
				return err
			}

			m := metrics.NewCollector("careerpath")
			model, err := newModel(ctx, cfg, m, logger)
			if err != nil {
				return err
			}
			hub := events.NewHub(32)

			// with a broker the worker does the analyses and its updates are
			// relayed into the hub; without one they run in-process
			var jobs app.JobQueue
			if cfg.RabbitMQURL != "" {
				conn, err := amqp.Dial(cfg.RabbitMQURL)
				if err != nil {
					return err
				}
				defer conn.Close()
				jobs = worker.NewAMQPQueue(conn)
				go func() {
					if err := events.Relay(ctx, conn, hub, logger); err != nil {
						logger.Error("update relay stopped", zap.Error(err))
					}
				}()
			} else {
				logger.Warn("empty RABBITMQ_URL, analysing resumes in-process")
				processor := worker.NewProcessor(queries, objects, model, hub, logger, worker.WithMetrics(m), worker.WithModelTimeout(cfg.ModelTimeout))
				inline := worker.NewInline(processor, logger)
				defer inline.Wait()
				jobs = inline
			}

			svc := app.NewService(app.Deps{
				Store:   queries,
				Model:   model,
				Objects: objects,
				Jobs:    jobs,
				Events:  hub,
				Metrics: m,
				Logger:  logger,
				Timeout: cfg.ModelTimeout,
			})

			router := api.NewRouter(api.RouterDeps{
				Service:   svc,
				Verifier:  verifier,
				Users:     queries,
				Hub:       hub,
				Metrics:   m,
				Logger:    logger,
				MaxUpload: maxUpload,
			})

			// no write timeout: websocket streams and model calls are long-lived
			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errs := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errs <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errs:
				return err
			}
			stop()
			logger.Info("shutting down gracefully")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", 5<<20, "largest accepted resume upload in bytes")
	return cmd
}
