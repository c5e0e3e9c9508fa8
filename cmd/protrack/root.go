package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/protrack/internal/api"
	"github.com/hyperengineering/protrack/internal/auth"
	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/chatbot"
	"github.com/hyperengineering/protrack/internal/config"
	"github.com/hyperengineering/protrack/internal/generation"
	"github.com/hyperengineering/protrack/internal/llm"
	"github.com/hyperengineering/protrack/internal/store"
	"github.com/hyperengineering/protrack/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "protrack",
	Short:        "ProTrack - AI roadmap service",
	SilenceUsage: true,
	RunE:         run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	category.RegisterBuiltins()

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	client := llm.NewOpenAI(llmConfig(cfg.LLM), llm.NewLogObserver(slog.Default()))
	slog.Info("llm client initialized", "provider", cfg.LLM.Provider, "model", client.ModelName())

	generator := generation.NewGenerator(client, generation.Config{
		ChunkDays: cfg.Generation.ChunkDays,
		MaxDays:   cfg.Generation.MaxDays,
	})
	dispatcher := chatbot.NewDispatcher(db, generator,
		chatbot.NewInterpreter(client), chatbot.NewExplainer(client))

	handler := api.NewHandler(api.Deps{
		Store:      db,
		Generator:  generator,
		Dispatcher: dispatcher,
		Verifier:   auth.NewVerifier(cfg.Auth.JWTSecret),
		Limiter:    api.NewRateLimiter(cfg.RateLimit.Burst, time.Duration(cfg.RateLimit.Refill)),
		Model:      client.ModelName(),
		Version:    Version,
	})
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if cfg.Reminder.Enabled {
		reminders, err := worker.NewReminderWorker(db, worker.LogNotifier{}, cfg.Reminder.Schedule)
		if err != nil {
			db.Close()
			return err
		}
		startWorker(ctx, &wg, "reminder", reminders.Run)
	}
	if cfg.Backup.Enabled {
		backups, err := newBackupWorker(db, cfg.Backup)
		if err != nil {
			db.Close()
			return err
		}
		startWorker(ctx, &wg, "backup", backups.Run)
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// In-flight requests drain first, then workers, then the store.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// llmConfig maps the loaded settings onto the client config. Interpret and
// explain share a timeout.
func llmConfig(c config.LLMConfig) llm.Config {
	tasks := llm.DefaultTasks()
	for task, tc := range tasks {
		tc.Temperature = c.Temperature
		if task == llm.TaskGenerate {
			tc.Timeout = time.Duration(c.GenerateTimeout)
		} else {
			tc.Timeout = time.Duration(c.InterpretTimeout)
		}
		tasks[task] = tc
	}
	return llm.Config{
		Provider: llm.Provider(c.Provider),
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Model:    c.Model,
		Timeout:  time.Duration(c.InterpretTimeout),
		Tasks:    tasks,
	}
}

func newLogger(w io.Writer, c config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Level)}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
