package costing

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// Report bundles one full costing run: the ledger, the FIFO allocation and
// the stock snapshot derived from it.
type Report struct {
	Ledger     Ledger     `json:"ledger"`
	Allocation Allocation `json:"allocation"`
	Stock      []StockRow `json:"stock"`
}

// Run recomputes everything from ds. Stock valuation and sale costs come from
// the same FIFO pass, so they agree on remaining quantities.
func Run(ds dataset.Dataset) Report {
	ledger := BuildLedger(ds)
	alloc := AllocateLedger(ledger, ds.ItemIndex())
	return Report{
		Ledger:     ledger,
		Allocation: alloc,
		Stock:      Valuate(ds.Items, ds.Sales, alloc.Remaining),
	}
}

// Profit computes the profit of sale from the report's allocation.
func (r Report) Profit(sale dataset.Sale) SaleProfit {
	return ProfitFor(sale, r.Allocation.Costs)
}

// Summarize totals the report across items and sales.
func Summarize(r Report, sales []dataset.Sale) Totals {
	t := Totals{Unbacked: map[dataset.ID]decimal.Decimal{}}
	for _, row := range r.Stock {
		t.StockValue = t.StockValue.Add(row.StockValue)
		switch row.Status {
		case StatusLowStock:
			t.LowStock++
		case StatusOutOfStock:
			t.OutOfStock++
		}
	}
	for _, sale := range sales {
		p := r.Profit(sale)
		t.Revenue = t.Revenue.Add(p.Revenue)
		t.COGS = t.COGS.Add(p.COGS)
		t.GrossProfit = t.GrossProfit.Add(p.GrossProfit)
		t.Discounts = t.Discounts.Add(p.Discount)
		t.NetProfit = t.NetProfit.Add(p.TotalProfit)
	}
	for itemID, qty := range r.Allocation.Unbacked {
		t.Unbacked[itemID] = qty
	}
	return t
}
