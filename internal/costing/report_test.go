package costing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

func TestRunAgreesWithProfit(t *testing.T) {
	s := sale("s1", day(3), sline("x", 25, 150))
	s.Discount = &dataset.Discount{Type: dataset.DiscountFlat, Value: amt(50)}
	ds := dataset.Dataset{
		Items: []dataset.Item{{ID: "x", Name: "Widget", LowStockThreshold: amt(5).Ptr()}, {ID: "idle"}},
		Purchases: []dataset.Purchase{
			purchase("p1", day(1), pline("x", 20, 100)),
			purchase("p2", day(2), pline("x", 10, 110)),
		},
		Sales: []dataset.Sale{s},
	}

	r := Run(ds)
	require.Len(t, r.Stock, 2)
	requireDec(t, "550", r.Stock[0].StockValue)
	require.Equal(t, StatusLowStock, r.Stock[0].Status)
	require.Equal(t, StatusOutOfStock, r.Stock[1].Status)

	p := r.Profit(s)
	requireDec(t, "2550", p.COGS)

	totals := Summarize(r, ds.Sales)
	requireDec(t, "550", totals.StockValue)
	requireDec(t, "3750", totals.Revenue)
	requireDec(t, "2550", totals.COGS)
	requireDec(t, "1200", totals.GrossProfit)
	requireDec(t, "50", totals.Discounts)
	requireDec(t, "1150", totals.NetProfit)
	require.Equal(t, 1, totals.LowStock)
	require.Equal(t, 1, totals.OutOfStock)
	require.Empty(t, totals.Unbacked)
}

func TestRunIsRepeatable(t *testing.T) {
	ds := propertyDataset()
	first := Summarize(Run(ds), ds.Sales)
	second := Summarize(Run(ds), ds.Sales)
	require.True(t, first.COGS.Equal(second.COGS))
	require.True(t, first.StockValue.Equal(second.StockValue))
	require.Len(t, second.Unbacked, 2)
}
