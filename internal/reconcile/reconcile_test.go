package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pay(invoice string, amount, discount float64) dataset.Payment {
	return dataset.Payment{InvoiceID: dataset.ID(invoice), Amount: dataset.AmountOf(amount), Discount: dataset.AmountOf(discount)}
}

func requireStatus(t *testing.T, st Status, code StatusCode, paid, balance string) {
	t.Helper()
	require.Equal(t, code, st.Status)
	require.True(t, dec(paid).Equal(st.PaidAmount), "paid %s", st.PaidAmount)
	require.True(t, dec(balance).Equal(st.Balance), "balance %s", st.Balance)
}

func TestStatusOf(t *testing.T) {
	inv := Invoice{ID: "inv-1", Total: dec("1000")}
	cases := []struct {
		name     string
		inv      Invoice
		payments []dataset.Payment
		code     StatusCode
		paid     string
		balance  string
	}{
		{"fully paid", inv, []dataset.Payment{pay("inv-1", 400, 0), pay("inv-1", 600, 0)}, StatusPaid, "1000", "0"},
		{"partial", inv, []dataset.Payment{pay("inv-1", 400, 0)}, StatusPartial, "400", "600"},
		{"zero total", Invoice{ID: "inv-0"}, nil, StatusCredit, "0", "0"},
		{"no payments", inv, nil, StatusCredit, "0", "1000"},
		{"other invoices ignored", inv, []dataset.Payment{pay("inv-2", 1000, 0)}, StatusCredit, "0", "1000"},
		{"settlement discount counts", inv, []dataset.Payment{pay("inv-1", 950, 50)}, StatusPaid, "1000", "0"},
		{"overpaid clamps balance", inv, []dataset.Payment{pay("inv-1", 1200, 0)}, StatusPaid, "1200", "0"},
		{"epsilon", inv, []dataset.Payment{pay("inv-1", 999.995, 0)}, StatusPaid, "999.995", "0"},
		{"just above epsilon", inv, []dataset.Payment{pay("inv-1", 999.98, 0)}, StatusPartial, "999.98", "0.02"},
		{"paid against zero total", Invoice{ID: "inv-0"}, []dataset.Payment{pay("inv-0", 5, 0)}, StatusPartial, "5", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireStatus(t, StatusOf(tc.inv, tc.payments), tc.code, tc.paid, tc.balance)
		})
	}
}

func TestStatusOfWithoutIdentity(t *testing.T) {
	st := StatusOf(Invoice{Total: dec("250")}, []dataset.Payment{pay("", 250, 0)})
	requireStatus(t, st, StatusCredit, "0", "250")
}

func TestStatusOfRoundsToCents(t *testing.T) {
	// three thirds of 10 land a fraction short of the total before rounding
	third := dec("3.333333")
	payments := []dataset.Payment{
		{InvoiceID: "a", Amount: dataset.NewAmount(third)},
		{InvoiceID: "a", Amount: dataset.NewAmount(third)},
		{InvoiceID: "a", Amount: dataset.NewAmount(third)},
	}
	st := StatusOf(Invoice{ID: "a", Total: dec("10")}, payments)
	requireStatus(t, st, StatusPaid, "9.999999", "0")
}

func TestInvoiceTotals(t *testing.T) {
	sale := dataset.Sale{
		ID:       "s1",
		Items:    []dataset.SaleLine{{ItemID: "x", Quantity: dataset.AmountOf(2), Price: dataset.AmountOf(50)}},
		Discount: &dataset.Discount{Type: dataset.DiscountFlat, Value: dataset.AmountOf(10)},
	}
	require.True(t, dec("90").Equal(FromSale(sale).Total))

	sale.TotalCost = dataset.AmountOf(95).Ptr()
	inv := FromSale(sale)
	require.True(t, dec("95").Equal(inv.Total))
	require.Equal(t, KindSale, inv.Kind)

	sale.TotalCostBase = dataset.AmountOf(97).Ptr()
	require.True(t, dec("97").Equal(FromSale(sale).Total))

	var decoded dataset.Sale
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s9","items":[],"totalCost":10,"totalCost_base":"12.50"}`), &decoded))
	require.True(t, dec("12.50").Equal(FromSale(decoded).Total))

	purchase := dataset.Purchase{
		ID:               "p1",
		FXRateToBusiness: dataset.AmountOf(2).Ptr(),
		Items:            []dataset.PurchaseLine{{ItemID: "x", Quantity: dataset.AmountOf(3), UnitPriceForeign: dataset.AmountOf(5).Ptr()}},
	}
	require.True(t, dec("30").Equal(FromPurchase(purchase).Total))

	purchase.TotalCost = dataset.AmountOf(28).Ptr()
	require.True(t, dec("28").Equal(FromPurchase(purchase).Total))

	purchase.TotalCostBase = dataset.AmountOf(31).Ptr()
	inv = FromPurchase(purchase)
	require.True(t, dec("31").Equal(inv.Total))
	require.Equal(t, KindPurchase, inv.Kind)
}

func TestFindAndOutstanding(t *testing.T) {
	ds := dataset.Dataset{
		Sales: []dataset.Sale{
			{ID: "s1", TotalCost: dataset.AmountOf(100).Ptr()},
			{ID: "s2", TotalCost: dataset.AmountOf(100).Ptr()},
		},
		Purchases: []dataset.Purchase{
			{ID: "p1", TotalCostBase: dataset.AmountOf(40).Ptr()},
		},
		Payments: []dataset.Payment{pay("s1", 100, 0), pay("p1", 10, 0)},
	}

	inv, ok := Find(ds, "p1")
	require.True(t, ok)
	require.Equal(t, KindPurchase, inv.Kind)
	_, ok = Find(ds, "missing")
	require.False(t, ok)

	open := Outstanding(ds)
	require.Len(t, open, 2)
	require.Equal(t, dataset.ID("s2"), open[0].InvoiceID)
	requireStatus(t, open[0], StatusCredit, "0", "100")
	require.Equal(t, dataset.ID("p1"), open[1].InvoiceID)
	requireStatus(t, open[1], StatusPartial, "10", "30")
}
