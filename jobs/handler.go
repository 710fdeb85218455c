package jobs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lotledger/internal/platform/httpx"
)

// QueueInspector is the part of asynq.Inspector the health endpoint reads.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector may be
// nil when no worker queue is configured.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
	Failed  int    `json:"failed"`
	Paused  bool   `json:"paused"`
}

type healthResponse struct {
	Enabled bool          `json:"enabled"`
	Queues  []queueHealth `json:"queues"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := healthResponse{Enabled: h.inspector != nil, Queues: make([]queueHealth, 0, len(QueueNames()))}
	for _, name := range QueueNames() {
		q := queueHealth{Queue: name}
		if h.inspector == nil {
			out.Queues = append(out.Queues, q)
			continue
		}
		info, err := h.inspector.GetQueueInfo(name)
		switch {
		case errors.Is(err, asynq.ErrQueueNotFound):
			// Nothing was ever enqueued on this queue.
		case err != nil:
			h.logger.Warn("jobs health", slog.String("queue", name), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "job queue unreachable")
			return
		case info != nil:
			q.Pending, q.Active, q.Retry, q.Failed, q.Paused = info.Pending, info.Active, info.Retry, info.Failed, info.Paused
		}
		out.Queues = append(out.Queues, q)
	}
	httpx.JSON(w, http.StatusOK, out)
}
