// Package costing derives FIFO purchase lots from a dataset, allocates lot
// cost to sales and reports stock valuation and sale profit from the same
// consumed lot state.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// Lot is a purchased quantity that keeps its original unit cost.
type Lot struct {
	ItemID     dataset.ID      `json:"itemId"`
	PurchaseID dataset.ID      `json:"purchaseId"`
	Date       dataset.Date    `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unitCost"`
}

// DemandLine is one sale line waiting to be costed. It is never mutated.
type DemandLine struct {
	SaleID   dataset.ID      `json:"saleId"`
	ItemID   dataset.ID      `json:"itemId"`
	Date     dataset.Date    `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Serials  []string        `json:"serials,omitempty"`
}

// Ledger is the chronologically ordered lot and demand sequences of one run.
type Ledger struct {
	Lots   []Lot        `json:"lots"`
	Demand []DemandLine `json:"demand"`
}

// SaleCost is the cost allocated to one sale. COGS always equals the sum of
// ItemCOGS.
type SaleCost struct {
	COGS     decimal.Decimal                `json:"cogs"`
	ItemCOGS map[dataset.ID]decimal.Decimal `json:"itemCogs"`
}

// SaleCostResult maps sale ids to their allocated cost.
type SaleCostResult map[dataset.ID]SaleCost

func (r SaleCostResult) add(saleID, itemID dataset.ID, cost decimal.Decimal) {
	sc, ok := r[saleID]
	if !ok {
		sc = SaleCost{ItemCOGS: map[dataset.ID]decimal.Decimal{}}
	}
	sc.COGS = sc.COGS.Add(cost)
	sc.ItemCOGS[itemID] = sc.ItemCOGS[itemID].Add(cost)
	r[saleID] = sc
}

// Allocation is the outcome of one FIFO pass.
type Allocation struct {
	Costs SaleCostResult `json:"costs"`
	// Remaining is the consumed copy of the lot sequence.
	Remaining []Lot `json:"remaining"`
	// Drawn is the quantity actually taken from lots, per item.
	Drawn map[dataset.ID]decimal.Decimal `json:"drawn"`
	// Unbacked is demand charged at the fallback price, per item.
	Unbacked map[dataset.ID]decimal.Decimal `json:"unbacked"`
}

// StockStatus classifies on-hand quantity.
type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// StockRow is one item line of the stock snapshot.
type StockRow struct {
	ItemID           dataset.ID      `json:"itemId"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku,omitempty"`
	Unit             string          `json:"unit,omitempty"`
	HasIMEI          bool            `json:"hasImei,omitempty"`
	OnHand           decimal.Decimal `json:"onHand"`
	StockValue       decimal.Decimal `json:"stockValue"`
	AvgPurchasePrice decimal.Decimal `json:"avgPurchasePrice"`
	LastSalePrice    decimal.Decimal `json:"lastSalePrice"`
	LastSaleDate     string          `json:"lastSaleDate"`
	Status           StockStatus     `json:"status"`
}

// ItemProfit is the profit of one item within a sale.
type ItemProfit struct {
	COGS     decimal.Decimal `json:"cogs"`
	Profit   decimal.Decimal `json:"profit"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCOGS decimal.Decimal `json:"unitCogs"`
}

// SaleProfit breaks down the profit of one sale. TotalProfit is net of the
// sale discount.
type SaleProfit struct {
	SaleID      dataset.ID                `json:"saleId"`
	Revenue     decimal.Decimal           `json:"revenue"`
	COGS        decimal.Decimal           `json:"cogs"`
	GrossProfit decimal.Decimal           `json:"grossProfit"`
	Discount    decimal.Decimal           `json:"discount"`
	TotalProfit decimal.Decimal           `json:"totalProfit"`
	ItemProfits map[dataset.ID]ItemProfit `json:"itemProfits"`
}

// Totals aggregates a report across all items and sales.
type Totals struct {
	StockValue  decimal.Decimal                `json:"stockValue"`
	Revenue     decimal.Decimal                `json:"revenue"`
	COGS        decimal.Decimal                `json:"cogs"`
	GrossProfit decimal.Decimal                `json:"grossProfit"`
	Discounts   decimal.Decimal                `json:"discounts"`
	NetProfit   decimal.Decimal                `json:"netProfit"`
	LowStock    int                            `json:"lowStock"`
	OutOfStock  int                            `json:"outOfStock"`
	Unbacked    map[dataset.ID]decimal.Decimal `json:"unbacked"`
}
