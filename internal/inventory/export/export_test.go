package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/lotledger/internal/costing"
	"github.com/odyssey-erp/lotledger/internal/dataset"
)

func sampleRows() []costing.StockRow {
	return []costing.StockRow{
		{
			ItemID:           "x",
			Name:             "Widget, large",
			OnHand:           decimal.NewFromInt(5),
			StockValue:       decimal.NewFromInt(550),
			AvgPurchasePrice: decimal.NewFromInt(110),
			LastSalePrice:    decimal.NewFromInt(150),
			LastSaleDate:     "2024-01-03",
			Status:           costing.StatusLowStock,
		},
		{ItemID: "y", Name: "Idle", LastSaleDate: dataset.Unavailable, Status: costing.StatusOutOfStock},
	}
}

func TestWriteStockCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStockCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, stockHeader, records[0])
	require.Equal(t, []string{"x", "Widget, large", "", "", "5", "550.00", "110.00", "150.00", "2024-01-03", "Low Stock"}, records[1])
	require.Equal(t, "unavailable", records[2][8])
	require.Equal(t, "0.00", records[2][5])
}

func TestWriteTotalsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTotalsCSV(&buf, costing.Totals{NetProfit: decimal.RequireFromString("1150.5"), LowStock: 2}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Contains(t, records, []string{"Net Profit", "1150.50"})
	require.Contains(t, records, []string{"Low Stock Items", "2"})
}

func TestWriteStockXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStockXLSX(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(stockSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Item ID", rows[0][0])
	require.Equal(t, "550", rows[1][5])
	require.Equal(t, "Low Stock", rows[1][9])
}
