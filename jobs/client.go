package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReconcile queues a payments reconcile and returns its task id.
func (c *Client) EnqueueReconcile(ctx context.Context, datasetID string, invoiceIDs []string) (string, error) {
	task, err := NewReconcileTask(ReconcilePayload{DatasetID: datasetID, InvoiceIDs: invoiceIDs})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// EnqueueValuationRefresh queues an out-of-schedule valuation refresh.
func (c *Client) EnqueueValuationRefresh(ctx context.Context) (string, error) {
	task, err := NewValuationRefreshTask(time.Now().UTC())
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	info, err := c.client.EnqueueContext(ctx, task, asynq.TaskID(uuid.NewString()))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
