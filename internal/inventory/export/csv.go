// Package export renders stock snapshots for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/costing"
)

var stockHeader = []string{
	"Item ID", "Name", "SKU", "Unit", "On Hand", "Stock Value",
	"Avg Purchase Price", "Last Sale Price", "Last Sale Date", "Status",
}

// WriteStockCSV serialises stock rows to CSV.
func WriteStockCSV(w io.Writer, rows []costing.StockRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(stockHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(stockRecord(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTotalsCSV emits the summary totals as metric/value pairs.
func WriteTotalsCSV(w io.Writer, totals costing.Totals) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Stock Value", formatDecimal(totals.StockValue)},
		{"Revenue", formatDecimal(totals.Revenue)},
		{"Cost of Goods Sold", formatDecimal(totals.COGS)},
		{"Gross Profit", formatDecimal(totals.GrossProfit)},
		{"Discounts", formatDecimal(totals.Discounts)},
		{"Net Profit", formatDecimal(totals.NetProfit)},
		{"Low Stock Items", strconv.Itoa(totals.LowStock)},
		{"Out of Stock Items", strconv.Itoa(totals.OutOfStock)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func stockRecord(row costing.StockRow) []string {
	return []string{
		row.ItemID.String(),
		row.Name,
		row.SKU,
		row.Unit,
		row.OnHand.String(),
		formatDecimal(row.StockValue),
		formatDecimal(row.AvgPurchasePrice),
		formatDecimal(row.LastSalePrice),
		row.LastSaleDate,
		string(row.Status),
	}
}

func formatDecimal(v decimal.Decimal) string {
	return v.StringFixed(2)
}
