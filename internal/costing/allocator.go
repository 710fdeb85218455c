package costing

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// Allocate consumes demand against lots oldest-first and returns the cost
// per sale together with the consumed lot state. The lots slice is copied
// and never modified.
//
// Demand beyond the available lots is charged at the item's static purchase
// price (zero for unknown items) and reported in Allocation.Unbacked.
// Serial numbers on demand lines do not influence which lots are drawn.
func Allocate(lots []Lot, demand []DemandLine, items map[dataset.ID]dataset.Item) Allocation {
	remaining := make([]Lot, len(lots))
	copy(remaining, lots)

	// Lot positions per item in sequence order, plus a cursor that skips
	// exhausted lots. Equivalent to a full ordered scan.
	positions := make(map[dataset.ID][]int)
	for i, lot := range remaining {
		positions[lot.ItemID] = append(positions[lot.ItemID], i)
	}
	cursor := make(map[dataset.ID]int, len(positions))

	alloc := Allocation{
		Costs:     SaleCostResult{},
		Remaining: remaining,
		Drawn:     map[dataset.ID]decimal.Decimal{},
		Unbacked:  map[dataset.ID]decimal.Decimal{},
	}

	for _, line := range demand {
		need := line.Quantity
		cost := decimal.Zero
		idx := positions[line.ItemID]
		for c := cursor[line.ItemID]; c < len(idx) && need.Sign() > 0; c++ {
			lot := &remaining[idx[c]]
			if lot.Quantity.Sign() <= 0 {
				cursor[line.ItemID] = c + 1
				continue
			}
			take := decimal.Min(need, lot.Quantity)
			cost = cost.Add(take.Mul(lot.UnitCost))
			lot.Quantity = lot.Quantity.Sub(take)
			need = need.Sub(take)
			alloc.Drawn[line.ItemID] = alloc.Drawn[line.ItemID].Add(take)
			if lot.Quantity.Sign() <= 0 {
				cursor[line.ItemID] = c + 1
			}
		}
		if need.Sign() > 0 {
			cost = cost.Add(need.Mul(items[line.ItemID].FallbackCost()))
			alloc.Unbacked[line.ItemID] = alloc.Unbacked[line.ItemID].Add(need)
		}
		alloc.Costs.add(line.SaleID, line.ItemID, cost)
	}
	return alloc
}

// AllocateLedger runs Allocate over a prepared ledger.
func AllocateLedger(ledger Ledger, items map[dataset.ID]dataset.Item) Allocation {
	return Allocate(ledger.Lots, ledger.Demand, items)
}
