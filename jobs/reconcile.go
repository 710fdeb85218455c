package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/lotledger/internal/jobs"
	"github.com/odyssey-erp/lotledger/internal/payments"
)

// Reconciler is the payments dependency of the reconcile job.
type Reconciler interface {
	DatasetID() string
	Reconcile(ctx context.Context, in payments.ReconcileInput) (payments.ReconcileResult, error)
}

// ReconcileJob runs queued payments reconciles.
type ReconcileJob struct {
	Payments Reconciler
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewReconcileJob wires dependencies for the reconcile handler.
func NewReconcileJob(p Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Payments: p, Logger: logger, Metrics: metrics}
}

// Handle processes TaskReconcilePayments tasks. A held dataset lock is
// retried by the queue; bad payloads are not.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Payments == nil {
		return errors.New("reconcile: handler not configured")
	}
	tracker := j.Metrics.Track(TaskReconcilePayments)
	defer func() { err = tracker.End(err) }()

	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("reconcile: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.DatasetID != "" && payload.DatasetID != j.Payments.DatasetID() {
		j.logger().Warn("reconcile for foreign dataset dropped", slog.String("dataset", payload.DatasetID))
		return fmt.Errorf("reconcile: dataset %s not served: %w", payload.DatasetID, asynq.SkipRetry)
	}

	result, err := j.Payments.Reconcile(ctx, payments.ReconcileInput{InvoiceIDs: payload.InvoiceIDs})
	switch {
	case errors.Is(err, payments.ErrNoInvoices), errors.Is(err, payments.ErrDatasetNotFound):
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	case err != nil:
		return err
	}
	j.logger().Info("reconcile task done",
		slog.String("dataset", result.DatasetID),
		slog.Int64("revision", result.Revision),
		slog.Bool("saved", result.Saved),
		slog.Int("unknown", len(result.Unknown)))
	return nil
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
