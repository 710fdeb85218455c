package dataset

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// SampleConfig sizes a generated dataset.
type SampleConfig struct {
	Items     int
	Purchases int
	Sales     int
	Seed      uint64
	Start     time.Time
}

// Sample generates a deterministic dataset for demos and load tests. Every
// fifth purchase is billed in EUR, every fourth sale carries a percentage
// discount, and demand runs slightly ahead of supply so fallback costing
// shows up.
func Sample(cfg SampleConfig) Dataset {
	if cfg.Items <= 0 {
		cfg.Items = 1
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	var ds Dataset

	prices := make([]decimal.Decimal, cfg.Items)
	for i := range cfg.Items {
		prices[i] = decimal.NewFromInt(int64(5 + rng.IntN(46)))
		item := Item{
			ID:            ID(fmt.Sprintf("item-%03d", i+1)),
			Name:          fmt.Sprintf("Item %d", i+1),
			SKU:           fmt.Sprintf("SKU-%05d", i+1),
			Unit:          "pcs",
			PurchasePrice: NewAmount(prices[i]).Ptr(),
			SalePrice:     NewAmount(prices[i].Mul(decimal.NewFromFloat(1.4)).Round(2)).Ptr(),
		}
		if i%2 == 0 {
			item.LowStockThreshold = AmountOf(5).Ptr()
		}
		ds.Items = append(ds.Items, item)
	}

	eur := decimal.NewFromFloat(1.1)
	for k := range cfg.Purchases {
		p := Purchase{
			ID:   ID(fmt.Sprintf("PO-%05d", k+1)),
			Date: DateOf(cfg.Start.AddDate(0, 0, k)),
		}
		foreign := k%5 == 4
		if foreign {
			p.Currency = "EUR"
			p.FXRateToBusiness = NewAmount(eur).Ptr()
		}
		for range 1 + rng.IntN(3) {
			i := rng.IntN(cfg.Items)
			line := PurchaseLine{ItemID: ds.Items[i].ID, Quantity: AmountOf(float64(1 + rng.IntN(20)))}
			if foreign {
				line.UnitPriceForeign = NewAmount(prices[i].Div(eur).Round(2)).Ptr()
			} else {
				line.UnitPriceLocal = NewAmount(prices[i]).Ptr()
			}
			p.Items = append(p.Items, line)
		}
		ds.Purchases = append(ds.Purchases, p)
		if k%3 == 0 {
			total := decimal.Zero
			for _, line := range p.Items {
				total = total.Add(p.UnitCost(line).Mul(line.Quantity.Decimal).Amount)
			}
			ds.Payments = append(ds.Payments, Payment{
				ID:        ID(fmt.Sprintf("PAY-P%05d", k+1)),
				InvoiceID: p.ID,
				Amount:    NewAmount(total),
				Date:      p.Date,
				Method:    "transfer",
			})
		}
	}

	for k := range cfg.Sales {
		s := Sale{
			ID:   ID(fmt.Sprintf("INV-%05d", k+1)),
			Date: DateOf(cfg.Start.AddDate(0, 0, k).Add(12 * time.Hour)),
		}
		for range 1 + rng.IntN(3) {
			i := rng.IntN(cfg.Items)
			s.Items = append(s.Items, SaleLine{
				ItemID:   ds.Items[i].ID,
				Quantity: AmountOf(float64(1 + rng.IntN(12))),
				Price:    *ds.Items[i].SalePrice,
			})
		}
		if k%4 == 3 {
			s.Discount = &Discount{Type: DiscountPercent, Value: AmountOf(5)}
		}
		ds.Sales = append(ds.Sales, s)

		// a third of the sales stay unpaid, a third are paid half
		if k%3 == 0 {
			continue
		}
		due := s.Revenue().Sub(s.DiscountAmount())
		if k%3 == 1 {
			due = due.Div(decimal.NewFromInt(2)).Round(2)
		}
		ds.Payments = append(ds.Payments, Payment{
			ID:        ID(fmt.Sprintf("PAY-S%05d", k+1)),
			InvoiceID: s.ID,
			Amount:    NewAmount(due),
			Date:      s.Date,
			Method:    "cash",
		})
	}
	return ds
}
