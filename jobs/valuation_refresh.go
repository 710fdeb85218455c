package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/lotledger/internal/jobs"
	"github.com/odyssey-erp/lotledger/internal/inventory"
)

// ValuationRefresher is the inventory dependency of the refresh job.
type ValuationRefresher interface {
	RefreshValuation(ctx context.Context) (inventory.Refresh, error)
}

// ValuationRefreshJob keeps the cached costing report of the dataset warm.
type ValuationRefreshJob struct {
	Inventory ValuationRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewValuationRefreshJob wires dependencies for the refresh handler.
func NewValuationRefreshJob(inv ValuationRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *ValuationRefreshJob {
	return &ValuationRefreshJob{Inventory: inv, Logger: logger, Metrics: metrics}
}

// Handle processes TaskValuationRefresh tasks.
func (j *ValuationRefreshJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Inventory == nil {
		return errors.New("valuation refresh: handler not configured")
	}
	tracker := j.Metrics.Track(TaskValuationRefresh)
	defer func() { err = tracker.End(err) }()

	var payload ValuationRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("valuation refresh: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	out, err := j.Inventory.RefreshValuation(ctx)
	if errors.Is(err, inventory.ErrDatasetNotFound) {
		j.logger().Warn("valuation refresh skipped", slog.Any("error", err))
		return nil
	}
	if err != nil {
		return err
	}
	j.Metrics.SetStockHealth(out.DatasetID, jobmetrics.StockHealth{
		Revision:   out.Revision,
		Items:      out.Items,
		LowStock:   out.LowStock,
		OutOfStock: out.OutOfStock,
		Unbacked:   out.Unbacked,
	})
	if out.Unbacked > 0 {
		j.logger().Warn("sales exceed purchased stock",
			slog.String("dataset", out.DatasetID),
			slog.Int("items", out.Unbacked))
	}
	return nil
}

func (j *ValuationRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
