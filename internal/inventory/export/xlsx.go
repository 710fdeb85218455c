package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/lotledger/internal/costing"
)

const stockSheet = "Stock"

// ContentTypeXLSX is the media type of WriteStockXLSX output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteStockXLSX writes stock rows as a single-sheet workbook. Quantities and
// money columns are numeric cells.
func WriteStockXLSX(w io.Writer, rows []costing.StockRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return err
	}
	header := make([]any, len(stockHeader))
	for i, h := range stockHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(stockSheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := []any{
			row.ItemID.String(),
			row.Name,
			row.SKU,
			row.Unit,
			row.OnHand.InexactFloat64(),
			row.StockValue.Round(2).InexactFloat64(),
			row.AvgPurchasePrice.Round(2).InexactFloat64(),
			row.LastSalePrice.Round(2).InexactFloat64(),
			row.LastSaleDate,
			string(row.Status),
		}
		if err := f.SetSheetRow(stockSheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(stockSheet, 1, 1, style); err != nil {
		return err
	}
	return f.Write(w)
}
