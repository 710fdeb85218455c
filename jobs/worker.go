package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker runs the asynq server and, when cron entries exist, the scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler binds a task type to its handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration schedules a prepared task on a cron expression.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts       asynq.RedisClientOpt
	Logger          *slog.Logger
	Concurrency     int
	ShutdownTimeout time.Duration
	Handlers        []TaskHandler
	Cron            []CronRegistration
}

// NewWorker validates cfg and registers handlers and cron entries.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	mux := asynq.NewServeMux()
	registered := 0
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
		registered++
	}
	if registered == 0 {
		return nil, errors.New("jobs: worker needs at least one handler")
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          Queues(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(failureLogger(logger)),
	})

	w := &Worker{server: srv, mux: mux, logger: logger}
	if len(cfg.Cron) == 0 {
		return w, nil
	}
	w.scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	for _, entry := range cfg.Cron {
		if entry.Spec == "" || entry.Task == nil {
			continue
		}
		id, err := w.scheduler.Register(entry.Spec, entry.Task, entry.Options...)
		if err != nil {
			return nil, err
		}
		logger.Info("cron registered", slog.String("task", entry.Task.Type()), slog.String("spec", entry.Spec), slog.String("entry", id))
	}
	return w, nil
}

func failureLogger(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		level := slog.LevelWarn
		if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "job failed",
			slog.String("task", task.Type()),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.Any("error", err))
	}
}

// Run processes tasks until ctx is cancelled or the server stops.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return err
		}
	}
	w.logger.Info("worker started", slog.Any("queues", QueueNames()))

	<-ctx.Done()
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	return ctx.Err()
}
