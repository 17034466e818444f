package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/llm"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"github.com/muhammadolammi/careerpath/internal/worker"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const critiqueInstruction = `You are a senior technical recruiter reviewing resumes.
Answer every request with exactly the JSON object it asks for and nothing else.`

func workerCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume the resume analysis queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if err := cfg.RequireWorker(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg.DBURL)
			if err != nil {
				return err
			}
			defer db.Close()
			queries := database.New(db)

			objects, err := storage.NewR2(ctx, cfg.R2)
			if err != nil {
				return err
			}

			agent, err := llm.NewAgent(ctx, llm.AgentConfig{
				APIKey:      cfg.GoogleAPIKey,
				Model:       cfg.Model,
				Name:        "resume_critic",
				Description: "Scores resumes and suggests grouped improvements.",
				Instruction: critiqueInstruction,
			}, logger)
			if err != nil {
				return err
			}
			m := metrics.NewCollector("careerpath_worker")
			model := guard(llm.Instrument(agent, m), cfg, logger)

			conn, err := amqp.Dial(cfg.RabbitMQURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", zap.Error(err))
					}
				}()
				defer srv.Close()
			}

			processor := worker.NewProcessor(queries, objects, model, events.NewAMQPPublisher(conn), logger, worker.WithMetrics(m), worker.WithModelTimeout(cfg.ModelTimeout))
			pool := worker.NewPool(conn, processor, cfg.Workers, logger)
			logger.Info("starting consumer pool", zap.Int("workers", cfg.Workers))
			return pool.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().Int("workers", 3, "number of concurrent consumers")
	_ = v.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	return cmd
}
