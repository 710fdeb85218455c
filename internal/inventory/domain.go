package inventory

import (
	"errors"

	"github.com/odyssey-erp/lotledger/internal/costing"
	"github.com/odyssey-erp/lotledger/internal/dataset"
)

var (
	// ErrDatasetNotFound indicates the configured dataset is not stored.
	ErrDatasetNotFound = errors.New("inventory: dataset not found")
	// ErrSaleNotFound indicates the sale id is unknown.
	ErrSaleNotFound = errors.New("inventory: sale not found")
)

// Snapshot is one loaded dataset revision together with its costing run.
type Snapshot struct {
	DatasetID string
	Revision  int64
	Dataset   dataset.Dataset
	Report    costing.Report
}

// StockView is the stock listing with its totals.
type StockView struct {
	DatasetID string             `json:"datasetId"`
	Revision  int64              `json:"revision"`
	Rows      []costing.StockRow `json:"rows"`
	Totals    costing.Totals     `json:"totals"`
}

// Refresh summarises one valuation refresh run.
type Refresh struct {
	DatasetID  string `json:"datasetId"`
	Revision   int64  `json:"revision"`
	Items      int    `json:"items"`
	LowStock   int    `json:"lowStock"`
	OutOfStock int    `json:"outOfStock"`
	Unbacked   int    `json:"unbacked"`
}
