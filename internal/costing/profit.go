package costing

import (
	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// ProfitFor computes revenue, cost and profit of one sale from an allocation
// result. A sale missing from costs is treated as zero cost.
func ProfitFor(sale dataset.Sale, costs SaleCostResult) SaleProfit {
	sc := costs[sale.ID]
	revenue := sale.Revenue()
	discount := sale.DiscountAmount()

	items := make(map[dataset.ID]ItemProfit)
	for _, line := range sale.Items {
		ip := items[line.ItemID]
		ip.Revenue = ip.Revenue.Add(line.Price.Mul(line.Quantity.Decimal))
		ip.Quantity = ip.Quantity.Add(line.Quantity.Decimal)
		items[line.ItemID] = ip
	}
	for itemID, ip := range items {
		ip.COGS = sc.ItemCOGS[itemID]
		ip.Profit = ip.Revenue.Sub(ip.COGS)
		if !ip.Quantity.IsZero() {
			ip.UnitCOGS = ip.COGS.Div(ip.Quantity)
		}
		items[itemID] = ip
	}

	gross := revenue.Sub(sc.COGS)
	return SaleProfit{
		SaleID:      sale.ID,
		Revenue:     revenue,
		COGS:        sc.COGS,
		GrossProfit: gross,
		Discount:    discount,
		TotalProfit: gross.Sub(discount),
		ItemProfits: items,
	}
}
