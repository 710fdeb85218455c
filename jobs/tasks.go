package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries scheduled valuation refreshes.
	QueueDefault = "default"
	// QueuePayments carries reconcile write-backs and is drained first.
	QueuePayments = "payments"
	// TaskValuationRefresh recomputes the stock valuation and warms the cache.
	TaskValuationRefresh = "inventory:valuation_refresh"
	// TaskReconcilePayments writes back paidAmount for changed invoices.
	TaskReconcilePayments = "payments:reconcile"
)

// Queues returns the worker queue priorities.
func Queues() map[string]int {
	return map[string]int{QueuePayments: 6, QueueDefault: 3}
}

// QueueNames lists the queues in priority order.
func QueueNames() []string {
	return []string{QueuePayments, QueueDefault}
}

// ValuationRefreshPayload carries scheduling metadata.
type ValuationRefreshPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewValuationRefreshTask constructs an Asynq task for a valuation refresh.
func NewValuationRefreshTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ValuationRefreshPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskValuationRefresh, body, asynq.Queue(QueueDefault)), nil
}

// ReconcilePayload names the dataset and the invoices whose payments changed.
type ReconcilePayload struct {
	DatasetID  string   `json:"datasetId"`
	InvoiceIDs []string `json:"invoiceIds"`
}

// NewReconcileTask constructs an Asynq task for a payments reconcile.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcilePayments, body, asynq.Queue(QueuePayments), asynq.MaxRetry(5)), nil
}
