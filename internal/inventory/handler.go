package inventory

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/lotledger/internal/inventory/export"
	"github.com/odyssey-erp/lotledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory costing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock", h.handleStock)
	r.Get("/stock/summary", h.handleSummary)
	r.Get("/sales/costs", h.handleSaleCosts)
	r.Get("/sales/{id}/profit", h.handleSaleProfit)
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Stock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		httpx.JSON(w, http.StatusOK, view)
	case "csv":
		var buf bytes.Buffer
		if err := export.WriteStockCSV(&buf, view.Rows); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="stock.csv"`)
		_, _ = w.Write(buf.Bytes())
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteStockXLSX(&buf, view.Rows); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="stock.xlsx"`)
		_, _ = w.Write(buf.Bytes())
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "format must be json, csv or xlsx")
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Stock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		var buf bytes.Buffer
		if err := export.WriteTotalsCSV(&buf, view.Totals); err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}
	httpx.JSON(w, http.StatusOK, view.Totals)
}

func (h *Handler) handleSaleCosts(w http.ResponseWriter, r *http.Request) {
	costs, err := h.service.SaleCosts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, costs)
}

func (h *Handler) handleSaleProfit(w http.ResponseWriter, r *http.Request) {
	profit, err := h.service.SaleProfit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profit)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSaleNotFound), errors.Is(err, ErrDatasetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
