package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

func itemsIndex(items ...dataset.Item) map[dataset.ID]dataset.Item {
	return dataset.Dataset{Items: items}.ItemIndex()
}

func TestAllocateScenarioSpillsIntoSecondLot(t *testing.T) {
	lots := BuildLots([]dataset.Purchase{
		purchase("p1", day(1), pline("x", 20, 100)),
		purchase("p2", day(2), pline("x", 10, 110)),
	})
	demand := BuildDemand([]dataset.Sale{sale("s1", day(3), sline("x", 25, 150))})

	alloc := Allocate(lots, demand, itemsIndex(dataset.Item{ID: "x"}))
	requireDec(t, "2550", alloc.Costs["s1"].COGS)
	requireDec(t, "2550", alloc.Costs["s1"].ItemCOGS["x"])

	requireDec(t, "0", alloc.Remaining[0].Quantity)
	requireDec(t, "5", alloc.Remaining[1].Quantity)
	requireDec(t, "110", alloc.Remaining[1].UnitCost)

	rows := Valuate([]dataset.Item{{ID: "x"}}, nil, alloc.Remaining)
	requireDec(t, "550", rows[0].StockValue)
	requireDec(t, "5", rows[0].OnHand)
}

func TestAllocateFallbackWithoutLots(t *testing.T) {
	demand := BuildDemand([]dataset.Sale{sale("s1", day(1), sline("x", 4, 80))})
	alloc := Allocate(nil, demand, itemsIndex(dataset.Item{ID: "x", PurchasePrice: amt(50).Ptr()}))

	requireDec(t, "200", alloc.Costs["s1"].COGS)
	requireDec(t, "4", alloc.Unbacked["x"])
	requireDec(t, "0", alloc.Drawn["x"])
}

func TestAllocatePartialFallback(t *testing.T) {
	lots := BuildLots([]dataset.Purchase{purchase("p1", day(1), pline("x", 3, 10))})
	demand := BuildDemand([]dataset.Sale{sale("s1", day(2), sline("x", 5, 20))})
	alloc := Allocate(lots, demand, itemsIndex(dataset.Item{ID: "x", PurchasePrice: amt(12).Ptr()}))

	requireDec(t, "54", alloc.Costs["s1"].COGS)
	requireDec(t, "3", alloc.Drawn["x"])
	requireDec(t, "2", alloc.Unbacked["x"])
}

func TestAllocateUnknownItemUsesZeroFallback(t *testing.T) {
	lots := BuildLots([]dataset.Purchase{purchase("p1", day(1), pline("x", 3, 10))})
	demand := BuildDemand([]dataset.Sale{sale("s1", day(2), sline("ghost", 2, 20))})
	alloc := Allocate(lots, demand, itemsIndex(dataset.Item{ID: "x"}))

	requireDec(t, "0", alloc.Costs["s1"].COGS)
	requireDec(t, "2", alloc.Unbacked["ghost"])
	requireDec(t, "3", alloc.Remaining[0].Quantity)
}

func TestAllocateLeavesCallerLotsUntouched(t *testing.T) {
	lots := BuildLots([]dataset.Purchase{purchase("p1", day(1), pline("x", 10, 5))})
	demand := BuildDemand([]dataset.Sale{sale("s1", day(2), sline("x", 7, 9))})

	_ = Allocate(lots, demand, nil)
	requireDec(t, "10", lots[0].Quantity)
}

func TestAllocateIgnoresSerialsForCosting(t *testing.T) {
	lots := BuildLots([]dataset.Purchase{
		purchase("p1", day(1), pline("phone", 1, 300)),
		purchase("p2", day(2), pline("phone", 1, 350)),
	})
	line := dataset.SaleLine{ItemID: "phone", Quantity: amt(1), Price: amt(500), Serials: []string{"serial-from-p2"}}
	demand := BuildDemand([]dataset.Sale{sale("s1", day(3), line)})

	alloc := Allocate(lots, demand, itemsIndex(dataset.Item{ID: "phone", HasIMEI: true}))
	requireDec(t, "300", alloc.Costs["s1"].COGS)
}

func TestAllocateSkipsExhaustedAndForeignLots(t *testing.T) {
	lots := []Lot{
		{ItemID: "x", Date: day(1), Quantity: decimal.Zero, UnitCost: dec("1")},
		{ItemID: "y", Date: day(1), Quantity: dec("5"), UnitCost: dec("2")},
		{ItemID: "x", Date: day(2), Quantity: dec("4"), UnitCost: dec("3")},
	}
	demand := []DemandLine{
		{SaleID: "s1", ItemID: "x", Date: day(3), Quantity: dec("2")},
		{SaleID: "s2", ItemID: "x", Date: day(4), Quantity: dec("2")},
		{SaleID: "s2", ItemID: "y", Date: day(4), Quantity: dec("1")},
	}
	alloc := Allocate(lots, demand, nil)
	requireDec(t, "6", alloc.Costs["s1"].COGS)
	requireDec(t, "8", alloc.Costs["s2"].COGS)
	requireDec(t, "6", alloc.Costs["s2"].ItemCOGS["x"])
	requireDec(t, "2", alloc.Costs["s2"].ItemCOGS["y"])
	requireDec(t, "4", alloc.Remaining[1].Quantity)
	requireDec(t, "0", alloc.Remaining[2].Quantity)
}

func propertyDataset() dataset.Dataset {
	return dataset.Dataset{
		Items: []dataset.Item{
			{ID: "a", PurchasePrice: amt(9).Ptr()},
			{ID: "b", PurchasePrice: amt(4).Ptr()},
			{ID: "c"},
		},
		Purchases: []dataset.Purchase{
			purchase("p1", day(1), pline("a", 10, 7.5), pline("b", 3, 2)),
			purchase("p2", day(4), pline("a", 6, 8.25), pline("c", 1, 100)),
			purchase("p3", day(2), pline("b", 5, 2.5)),
		},
		Sales: []dataset.Sale{
			sale("s1", day(3), sline("a", 4, 12), sline("b", 6, 5), sline("a", 3, 12)),
			sale("s2", day(5), sline("a", 12, 13), sline("c", 0.5, 150)),
			sale("s3", day(5), sline("b", 4, 6)),
		},
	}
}

func TestAllocationProperties(t *testing.T) {
	ds := propertyDataset()
	ledger := BuildLedger(ds)
	alloc := AllocateLedger(ledger, ds.ItemIndex())

	t.Run("conservation", func(t *testing.T) {
		original := map[dataset.ID]decimal.Decimal{}
		left := map[dataset.ID]decimal.Decimal{}
		for i := range ledger.Lots {
			original[ledger.Lots[i].ItemID] = original[ledger.Lots[i].ItemID].Add(ledger.Lots[i].Quantity)
			left[alloc.Remaining[i].ItemID] = left[alloc.Remaining[i].ItemID].Add(alloc.Remaining[i].Quantity)
		}
		for id, qty := range original {
			require.True(t, qty.Equal(left[id].Add(alloc.Drawn[id])), "item %s", id)
		}
		requireDec(t, "0.5", original["c"].Sub(left["c"]))
	})

	t.Run("cogs additivity", func(t *testing.T) {
		for id, sc := range alloc.Costs {
			sum := decimal.Zero
			for _, v := range sc.ItemCOGS {
				sum = sum.Add(v)
			}
			require.True(t, sc.COGS.Equal(sum), "sale %s", id)
		}
	})

	t.Run("determinism", func(t *testing.T) {
		again := AllocateLedger(ledger, ds.ItemIndex())
		require.Equal(t, len(alloc.Costs), len(again.Costs))
		for id, sc := range alloc.Costs {
			require.True(t, sc.COGS.Equal(again.Costs[id].COGS), "sale %s", id)
		}
		for i := range alloc.Remaining {
			require.True(t, alloc.Remaining[i].Quantity.Equal(again.Remaining[i].Quantity))
		}
	})

	t.Run("expected figures", func(t *testing.T) {
		// s1: a 7 from p1 @7.5, b 3 @2 + 3 @2.5 (p3)
		requireDec(t, "52.5", alloc.Costs["s1"].ItemCOGS["a"])
		requireDec(t, "13.5", alloc.Costs["s1"].ItemCOGS["b"])
		// s2: a 3 @7.5 + 6 @8.25 + 3 fallback @9, c 0.5 @100
		requireDec(t, "99", alloc.Costs["s2"].ItemCOGS["a"])
		requireDec(t, "50", alloc.Costs["s2"].ItemCOGS["c"])
		// s3: b 2 @2.5 + 2 fallback @4
		requireDec(t, "13", alloc.Costs["s3"].COGS)
		requireDec(t, "3", alloc.Unbacked["a"])
		requireDec(t, "2", alloc.Unbacked["b"])
	})
}
