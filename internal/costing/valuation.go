package costing

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

type lastSale struct {
	price decimal.Decimal
	date  dataset.Date
}

// Valuate produces one stock row per item from the consumed lot state.
func Valuate(items []dataset.Item, sales []dataset.Sale, remaining []Lot) []StockRow {
	onHand := make(map[dataset.ID]decimal.Decimal)
	value := make(map[dataset.ID]decimal.Decimal)
	for _, lot := range remaining {
		if lot.Quantity.Sign() <= 0 {
			continue
		}
		onHand[lot.ItemID] = onHand[lot.ItemID].Add(lot.Quantity)
		value[lot.ItemID] = value[lot.ItemID].Add(lot.Quantity.Mul(lot.UnitCost))
	}

	last := lastSales(sales)

	rows := make([]StockRow, 0, len(items))
	for _, item := range items {
		qty := onHand[item.ID]
		stockValue := value[item.ID]
		avg := decimal.Zero
		if !qty.IsZero() {
			avg = stockValue.Div(qty)
		}
		row := StockRow{
			ItemID:           item.ID,
			Name:             item.Name,
			SKU:              item.SKU,
			Unit:             item.Unit,
			HasIMEI:          item.HasIMEI,
			OnHand:           qty,
			StockValue:       stockValue,
			AvgPurchasePrice: avg,
			LastSaleDate:     dataset.Unavailable,
			Status:           classify(qty, item.LowStockThreshold),
		}
		if ls, ok := last[item.ID]; ok {
			row.LastSalePrice = ls.price
			row.LastSaleDate = ls.date.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// lastSales walks sales in input order. A line replaces the recorded one only
// when its date is strictly later.
func lastSales(sales []dataset.Sale) map[dataset.ID]lastSale {
	out := make(map[dataset.ID]lastSale)
	for _, sale := range sales {
		for _, line := range sale.Items {
			cur, ok := out[line.ItemID]
			if ok && !sale.Date.After(cur.date) {
				continue
			}
			out[line.ItemID] = lastSale{price: line.Price.Decimal, date: sale.Date}
		}
	}
	return out
}

func classify(onHand decimal.Decimal, threshold *dataset.Amount) StockStatus {
	if onHand.Sign() <= 0 {
		return StatusOutOfStock
	}
	if limit := threshold.Dec(); limit.Sign() > 0 && onHand.LessThanOrEqual(limit) {
		return StatusLowStock
	}
	return StatusInStock
}
