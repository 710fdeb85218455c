package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/lotledger/internal/costing"
	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/docstore"
	"github.com/odyssey-erp/lotledger/internal/platform/cache"
)

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	DatasetID string
}

// Service loads the dataset and serves costing results. Reports are
// memoized per dataset revision and cache version.
type Service struct {
	store     docstore.Store
	cache     *cache.Cache
	datasetID string
	logger    *slog.Logger
	group     singleflight.Group
}

// NewService builds Service. A nil cache recomputes on every call.
func NewService(store docstore.Store, c *cache.Cache, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	id := cfg.DatasetID
	if id == "" {
		id = "business"
	}
	return &Service{store: store, cache: c, datasetID: id, logger: logger}
}

// DatasetID returns the dataset the service reads.
func (s *Service) DatasetID() string {
	return s.datasetID
}

// Snapshot loads the current dataset revision and its costing report.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	doc, rev, err := s.store.Load(ctx, s.datasetID)
	if errors.Is(err, docstore.ErrNotFound) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, s.datasetID)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("inventory: load dataset: %w", err)
	}
	ds := doc.Dataset()
	report, err := s.report(ctx, ds, rev)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{DatasetID: s.datasetID, Revision: rev, Dataset: ds, Report: report}, nil
}

func (s *Service) report(ctx context.Context, ds dataset.Dataset, rev int64) (costing.Report, error) {
	key, err := s.cache.BuildKey(ctx, "inventory", "report", s.datasetID, strconv.FormatInt(rev, 10))
	if err != nil {
		s.logger.Warn("inventory cache key unavailable", slog.Any("error", err))
		return costing.Run(ds), nil
	}
	res := s.group.DoChan(key, func() (any, error) {
		var report costing.Report
		err := s.cache.FetchJSON(ctx, key, &report, func(context.Context) (any, error) {
			return costing.Run(ds), nil
		})
		return report, err
	})
	select {
	case <-ctx.Done():
		return costing.Report{}, ctx.Err()
	case out := <-res:
		if out.Err != nil {
			s.logger.Warn("inventory cache bypassed", slog.String("key", key), slog.Any("error", out.Err))
			return costing.Run(ds), nil
		}
		return out.Val.(costing.Report), nil
	}
}

// Stock returns one row per item with totals.
func (s *Service) Stock(ctx context.Context) (StockView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return StockView{}, err
	}
	return StockView{
		DatasetID: snap.DatasetID,
		Revision:  snap.Revision,
		Rows:      snap.Report.Stock,
		Totals:    costing.Summarize(snap.Report, snap.Dataset.Sales),
	}, nil
}

// SaleCosts returns the FIFO cost of every sale.
func (s *Service) SaleCosts(ctx context.Context) (costing.SaleCostResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Report.Allocation.Costs, nil
}

// SaleProfit computes the profit of one sale.
func (s *Service) SaleProfit(ctx context.Context, saleID string) (costing.SaleProfit, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return costing.SaleProfit{}, err
	}
	sale, ok := snap.Dataset.FindSale(dataset.ID(saleID))
	if !ok {
		return costing.SaleProfit{}, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
	}
	return snap.Report.Profit(sale), nil
}

// RefreshValuation recomputes the report for the current revision so the
// cache is warm, and summarises stock health.
func (s *Service) RefreshValuation(ctx context.Context) (Refresh, error) {
	view, err := s.Stock(ctx)
	if err != nil {
		return Refresh{}, err
	}
	out := Refresh{
		DatasetID:  view.DatasetID,
		Revision:   view.Revision,
		Items:      len(view.Rows),
		LowStock:   view.Totals.LowStock,
		OutOfStock: view.Totals.OutOfStock,
		Unbacked:   len(view.Totals.Unbacked),
	}
	s.logger.Info("valuation refreshed",
		slog.String("dataset", out.DatasetID),
		slog.Int64("revision", out.Revision),
		slog.Int("items", out.Items),
		slog.Int("low_stock", out.LowStock),
		slog.Int("out_of_stock", out.OutOfStock))
	return out, nil
}
