package costing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

func day(n int) dataset.Date {
	return dataset.DateOf(time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC))
}

func amt(v float64) dataset.Amount {
	return dataset.AmountOf(v)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func purchase(id string, d dataset.Date, lines ...dataset.PurchaseLine) dataset.Purchase {
	return dataset.Purchase{ID: dataset.ID(id), Date: d, Items: lines}
}

func pline(item string, qty, cost float64) dataset.PurchaseLine {
	return dataset.PurchaseLine{ItemID: dataset.ID(item), Quantity: amt(qty), UnitPriceLocal: amt(cost).Ptr()}
}

func sale(id string, d dataset.Date, lines ...dataset.SaleLine) dataset.Sale {
	return dataset.Sale{ID: dataset.ID(id), Date: d, Items: lines}
}

func sline(item string, qty, price float64) dataset.SaleLine {
	return dataset.SaleLine{ItemID: dataset.ID(item), Quantity: amt(qty), Price: amt(price)}
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}
