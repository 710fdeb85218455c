// Package payments serves invoice status and persists paidAmount write-backs
// for the stored dataset.
package payments

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/reconcile"
)

var (
	// ErrDatasetNotFound indicates the configured dataset is not stored.
	ErrDatasetNotFound = errors.New("payments: dataset not found")
	// ErrInvoiceNotFound indicates no sale or purchase carries the id.
	ErrInvoiceNotFound = errors.New("payments: invoice not found")
	// ErrNoInvoices is returned when a reconcile names no invoice.
	ErrNoInvoices = errors.New("payments: invoice ids required")
	// ErrLocked is returned when another reconcile holds the dataset lock.
	ErrLocked = errors.New("payments: dataset locked")
)

// InvoiceView is the status of one invoice with its origin and total.
type InvoiceView struct {
	reconcile.Status
	Kind  reconcile.Kind  `json:"kind"`
	Total decimal.Decimal `json:"total"`
}

// ReconcileInput names the invoices whose payments changed.
type ReconcileInput struct {
	InvoiceIDs []string `json:"invoiceIds" validate:"required,min=1,dive,required"`
	DryRun     bool     `json:"dryRun"`
}

// ReconcileResult reports one reconcile run.
type ReconcileResult struct {
	DatasetID string            `json:"datasetId"`
	Revision  int64             `json:"revision"`
	Saved     bool              `json:"saved"`
	Payload   reconcile.Payload `json:"payload"`
	Invoices  []InvoiceView     `json:"invoices"`
	Unknown   []string          `json:"unknown,omitempty"`
}

// LockKey is the distributed lock guarding writes to a dataset.
func LockKey(datasetID string) string {
	return "lotledger:dataset:" + datasetID + ":lock"
}
