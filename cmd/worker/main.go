package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lotledger/internal/app"
	"github.com/odyssey-erp/lotledger/internal/inventory"
	jobmetrics "github.com/odyssey-erp/lotledger/internal/jobs"
	"github.com/odyssey-erp/lotledger/internal/observability"
	"github.com/odyssey-erp/lotledger/internal/payments"
	"github.com/odyssey-erp/lotledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	deps, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	inventoryService := inventory.NewService(deps.Store, deps.Cache, inventory.ServiceConfig{DatasetID: cfg.DatasetID}, logger)
	paymentsService := payments.NewService(deps.Store, deps.Locker, deps.Cache, payments.ServiceConfig{
		DatasetID: cfg.DatasetID,
		LockTTL:   cfg.LockTTL,
		Recorder:  metrics,
	}, logger)

	refreshJob := jobs.NewValuationRefreshJob(inventoryService, logger, jobMetrics)
	reconcileJob := jobs.NewReconcileJob(paymentsService, logger, jobMetrics)

	refreshTask, err := jobs.NewValuationRefreshTask(time.Time{})
	if err != nil {
		logger.Error("build valuation task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskValuationRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskReconcilePayments, Handler: reconcileJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ValuationCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker",
		slog.String("dataset", cfg.DatasetID),
		slog.String("valuation_cron", cfg.ValuationCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
