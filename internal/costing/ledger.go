package costing

import (
	"sort"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// BuildLots materializes one lot per purchase line with a positive quantity,
// ordered by purchase date. Equal dates keep input order.
func BuildLots(purchases []dataset.Purchase) []Lot {
	lots := make([]Lot, 0, len(purchases))
	for _, purchase := range purchases {
		for _, line := range purchase.Items {
			if line.Quantity.Sign() <= 0 {
				continue
			}
			lots = append(lots, Lot{
				ItemID:     line.ItemID,
				PurchaseID: purchase.ID,
				Date:       purchase.Date,
				Quantity:   line.Quantity.Decimal,
				UnitCost:   purchase.UnitCost(line).Amount,
			})
		}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Date.Before(lots[j].Date)
	})
	return lots
}

// BuildDemand lists one demand line per sale line with a positive quantity,
// ordered by sale date. Equal dates keep input order.
func BuildDemand(sales []dataset.Sale) []DemandLine {
	demand := make([]DemandLine, 0, len(sales))
	for _, sale := range sales {
		for _, line := range sale.Items {
			if line.Quantity.Sign() <= 0 {
				continue
			}
			demand = append(demand, DemandLine{
				SaleID:   sale.ID,
				ItemID:   line.ItemID,
				Date:     sale.Date,
				Quantity: line.Quantity.Decimal,
				Price:    line.Price.Decimal,
				Serials:  append([]string(nil), line.Serials...),
			})
		}
	}
	sort.SliceStable(demand, func(i, j int) bool {
		return demand[i].Date.Before(demand[j].Date)
	})
	return demand
}

// BuildLedger builds both sequences for ds.
func BuildLedger(ds dataset.Dataset) Ledger {
	return Ledger{Lots: BuildLots(ds.Purchases), Demand: BuildDemand(ds.Sales)}
}
