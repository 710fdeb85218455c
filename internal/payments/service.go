package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bsm/redislock"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/docstore"
	"github.com/odyssey-erp/lotledger/internal/platform/cache"
	"github.com/odyssey-erp/lotledger/internal/reconcile"
)

// Reconcile outcomes passed to a Recorder.
const (
	OutcomeSaved     = "saved"
	OutcomeDryRun    = "dry_run"
	OutcomeUnchanged = "unchanged"
	OutcomeLocked    = "locked"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Recorder observes the outcome of every reconcile call.
type Recorder interface {
	RecordReconcile(datasetID, outcome string, unknown int)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	DatasetID string
	LockTTL   time.Duration
	Recorder  Recorder
}

// Service coordinates invoice status queries and reconcile write-backs.
type Service struct {
	store     docstore.Store
	locker    *redislock.Client
	cache     *cache.Cache
	datasetID string
	lockTTL   time.Duration
	recorder  Recorder
	logger    *slog.Logger
}

// NewService builds Service. Without a locker reconciles run unlocked, and
// without a cache nothing is invalidated after a save.
func NewService(store docstore.Store, locker *redislock.Client, c *cache.Cache, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DatasetID == "" {
		cfg.DatasetID = "business"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &Service{
		store:     store,
		locker:    locker,
		cache:     c,
		datasetID: cfg.DatasetID,
		lockTTL:   cfg.LockTTL,
		recorder:  cfg.Recorder,
		logger:    logger,
	}
}

// DatasetID returns the dataset the service writes.
func (s *Service) DatasetID() string {
	return s.datasetID
}

func (s *Service) load(ctx context.Context) (*dataset.Document, int64, error) {
	doc, rev, err := s.store.Load(ctx, s.datasetID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: %s", ErrDatasetNotFound, s.datasetID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("payments: load dataset: %w", err)
	}
	return doc, rev, nil
}

// Status derives the payment status of one sale or purchase.
func (s *Service) Status(ctx context.Context, invoiceID string) (InvoiceView, error) {
	doc, _, err := s.load(ctx)
	if err != nil {
		return InvoiceView{}, err
	}
	ds := doc.Dataset()
	inv, ok := reconcile.Find(ds, dataset.ID(strings.TrimSpace(invoiceID)))
	if !ok {
		return InvoiceView{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
	}
	return view(inv, ds.Payments), nil
}

// Outstanding lists every invoice that is not fully paid.
func (s *Service) Outstanding(ctx context.Context) ([]reconcile.Status, error) {
	doc, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := reconcile.Outstanding(doc.Dataset())
	if out == nil {
		out = []reconcile.Status{}
	}
	return out, nil
}

// Reconcile recomputes paidAmount for the named invoices and, unless DryRun
// is set, persists the merged document under the dataset lock.
func (s *Service) Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error) {
	result, err := s.reconcile(ctx, in)
	if s.recorder != nil {
		s.recorder.RecordReconcile(s.datasetID, outcome(in, result, err), len(result.Unknown))
	}
	return result, err
}

func outcome(in ReconcileInput, result ReconcileResult, err error) string {
	switch {
	case errors.Is(err, ErrLocked):
		return OutcomeLocked
	case errors.Is(err, ErrNoInvoices):
		return OutcomeRejected
	case err != nil:
		return OutcomeFailed
	case result.Saved:
		return OutcomeSaved
	case in.DryRun:
		return OutcomeDryRun
	default:
		return OutcomeUnchanged
	}
}

func (s *Service) reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error) {
	ids := make([]dataset.ID, 0, len(in.InvoiceIDs))
	for _, raw := range in.InvoiceIDs {
		if id := dataset.ID(strings.TrimSpace(raw)); !id.Empty() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ReconcileResult{}, ErrNoInvoices
	}

	if !in.DryRun && s.locker != nil {
		lock, err := s.locker.Obtain(ctx, LockKey(s.datasetID), s.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return ReconcileResult{}, fmt.Errorf("%w: %s", ErrLocked, s.datasetID)
		}
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("payments: obtain lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				s.logger.Warn("release dataset lock", slog.String("dataset", s.datasetID), slog.Any("error", err))
			}
		}()
	}

	doc, rev, err := s.load(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}
	ds := doc.Dataset()

	result := ReconcileResult{DatasetID: s.datasetID, Revision: rev}
	for _, id := range ids {
		inv, ok := reconcile.Find(ds, id)
		if !ok {
			result.Unknown = append(result.Unknown, id.String())
			continue
		}
		result.Invoices = append(result.Invoices, view(inv, ds.Payments))
	}

	result.Payload = reconcile.WriteBack(ds, ids)
	if in.DryRun || result.Payload.Empty() {
		return result, nil
	}

	merged, err := reconcile.Apply(doc, result.Payload)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("payments: merge: %w", err)
	}
	newRev, err := s.store.Save(ctx, s.datasetID, merged)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("payments: save dataset: %w", err)
	}
	result.Revision = newRev
	result.Saved = true

	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed", slog.String("dataset", s.datasetID), slog.Any("error", err))
	}
	s.logger.Info("payments reconciled",
		slog.String("dataset", s.datasetID),
		slog.Int64("revision", newRev),
		slog.Int("invoices", len(result.Invoices)),
		slog.Int("unknown", len(result.Unknown)))
	return result, nil
}

func view(inv reconcile.Invoice, payments []dataset.Payment) InvoiceView {
	return InvoiceView{Status: reconcile.StatusOf(inv, payments), Kind: inv.Kind, Total: inv.Total}
}
