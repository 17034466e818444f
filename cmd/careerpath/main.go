package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/muhammadolammi/careerpath/internal/config"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/llm"
	"github.com/muhammadolammi/careerpath/internal/logging"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "careerpath",
	Short: "CareerPath career assistant",
	Long: `CareerPath is a career assistant backed by a language model.
- chat: free conversation that keeps earlier turns as context.
- roadmap: a phased learning plan towards a target role.
- resume: a scored critique of a resume with grouped improvements.
The serve command exposes all three over HTTP and WebSocket; the worker
command analyses uploaded resumes from the job queue.`,
	SilenceUsage: true,
}

func main() {
	v = config.NewViper()
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("env", "production", "environment (production or development)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("model", "gemini-2.5-flash", "language model name")
	rootCmd.PersistentFlags().Duration("model-timeout", 60*time.Second, "bound on each model call")
	_ = v.BindPFlag("env", rootCmd.PersistentFlags().Lookup("env"))
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = v.BindPFlag("model_timeout", rootCmd.PersistentFlags().Lookup("model-timeout"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(roadmapCmd())
	rootCmd.AddCommand(resumeCmd())
	rootCmd.AddCommand(tokenCmd())
}

// setup loads configuration and builds the logger for a command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func openDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	return db, nil
}

func migrateDB(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	version, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logger.Info("database schema ready", zap.Int("version", version))
	return nil
}

// newModel wraps the Gemini client in metrics and a circuit breaker.
func newModel(ctx context.Context, cfg *config.Config, m *metrics.Collector, logger *zap.Logger) (llm.Model, error) {
	g, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.GoogleAPIKey == "" {
		logger.Warn("empty GOOGLE_API_KEY, every model call will fail")
	}
	return guard(llm.Instrument(g, m), cfg, logger), nil
}

func guard(model llm.Model, cfg *config.Config, logger *zap.Logger) llm.Model {
	bc := llm.DefaultBreakerConfig("gemini")
	bc.ConsecutiveFailures = cfg.BreakerFailures
	bc.OpenTimeout = cfg.BreakerOpenTimeout
	return llm.NewBreaker(model, bc, logger)
}
