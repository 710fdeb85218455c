package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/lotledger/internal/platform/httpx"
)

// Enqueuer schedules a reconcile on the background worker.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, datasetID string, invoiceIDs []string) (string, error)
}

// Handler wires HTTP endpoints for invoice status and reconciliation.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	jobs      Enqueuer
	validator *validator.Validate
}

// NewHandler constructs the payments handler. jobs may be nil, in which case
// the async endpoint answers 503.
func NewHandler(logger *slog.Logger, service *Service, jobs Enqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, jobs: jobs, validator: validator.New()}
}

// MountRoutes registers payments routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices/outstanding", h.handleOutstanding)
	r.Get("/invoices/{id}/status", h.handleStatus)
	r.Post("/payments/reconcile", h.handleReconcile)
	r.Post("/payments/reconcile/async", h.handleReconcileAsync)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	open, err := h.service.Outstanding(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, open)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.Reconcile(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleReconcileAsync(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background jobs are not configured")
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	taskID, err := h.jobs.EnqueueReconcile(r.Context(), h.service.DatasetID(), in.InvoiceIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (ReconcileInput, bool) {
	var in ReconcileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return in, false
	}
	if err := h.validator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		details := []string{err.Error()}
		if errors.As(err, &fieldErrs) {
			details = details[:0]
			for _, fieldErr := range fieldErrs {
				details = append(details, fieldErr.Field()+": "+fieldErr.Tag())
			}
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(details, ", "))
		return in, false
	}
	return in, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, ErrDatasetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoInvoices):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("payments request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
