package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/lotledger/internal/app"
	"github.com/odyssey-erp/lotledger/internal/inventory"
	"github.com/odyssey-erp/lotledger/internal/observability"
	"github.com/odyssey-erp/lotledger/internal/payments"
	"github.com/odyssey-erp/lotledger/internal/platform/cache"
	"github.com/odyssey-erp/lotledger/jobs"
)

// ServeCmd reads its configuration from the environment.
type ServeCmd struct{}

func (cmd *ServeCmd) Run(ctx context.Context) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	deps, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	metrics := observability.NewMetrics()
	inventoryService := inventory.NewService(deps.Store, deps.Cache, inventory.ServiceConfig{DatasetID: cfg.DatasetID}, logger)
	paymentsService := payments.NewService(deps.Store, deps.Locker, deps.Cache, payments.ServiceConfig{
		DatasetID: cfg.DatasetID,
		LockTTL:   cfg.LockTTL,
		Recorder:  metrics,
	}, logger)

	var (
		enqueuer  payments.Enqueuer
		inspector jobs.QueueInspector
	)
	if deps.Redis != nil {
		redisOpts := cfg.AsynqRedis()
		client := jobs.NewClient(redisOpts)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		enqueuer = client

		asynqInspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := asynqInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = asynqInspector

		if err := deps.Cache.ListenForInvalidation(ctx, cache.BumpChannel, func(ver int64) {
			logger.Debug("cache version bumped", slog.Int64("version", ver))
		}); err != nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		PaymentsHandler:  payments.NewHandler(logger, paymentsService, enqueuer),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.StoreBackend),
			slog.String("dataset", cfg.DatasetID))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		return err
	}
	return nil
}
