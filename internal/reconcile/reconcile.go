// Package reconcile derives invoice payment status from the payments list and
// prepares paidAmount write-backs for the stored dataset.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/money"
)

// StatusCode is the settlement state of an invoice.
type StatusCode string

const (
	StatusPaid    StatusCode = "Paid"
	StatusPartial StatusCode = "Partial"
	StatusCredit  StatusCode = "Credit"
)

// Kind tells which collection an invoice came from.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// balanceEpsilon absorbs rounding drift on the remaining balance.
var balanceEpsilon = decimal.New(1, -2)

// Invoice is a sale or purchase seen as something payments settle.
type Invoice struct {
	ID    dataset.ID      `json:"id"`
	Kind  Kind            `json:"kind"`
	Total decimal.Decimal `json:"total"`
}

// Status is the derived payment state of one invoice.
type Status struct {
	InvoiceID  dataset.ID      `json:"invoiceId,omitempty"`
	Status     StatusCode      `json:"status"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Balance    decimal.Decimal `json:"balance"`
}

// FromSale builds the invoice view of a sale. totalCost_base wins over
// totalCost; with neither, the total is revenue net of the sale discount.
func FromSale(s dataset.Sale) Invoice {
	inv := Invoice{ID: s.ID, Kind: KindSale}
	switch {
	case s.TotalCostBase != nil:
		inv.Total = s.TotalCostBase.Decimal
	case s.TotalCost != nil:
		inv.Total = s.TotalCost.Decimal
	default:
		inv.Total = s.Revenue().Sub(s.DiscountAmount())
	}
	return inv
}

// FromPurchase builds the invoice view of a purchase. totalCost_base wins over
// totalCost; with neither, the line costs are summed in business currency.
func FromPurchase(p dataset.Purchase) Invoice {
	inv := Invoice{ID: p.ID, Kind: KindPurchase}
	switch {
	case p.TotalCostBase != nil:
		inv.Total = p.TotalCostBase.Decimal
	case p.TotalCost != nil:
		inv.Total = p.TotalCost.Decimal
	default:
		for _, line := range p.Items {
			inv.Total = inv.Total.Add(p.UnitCost(line).Mul(line.Quantity.Decimal).Amount)
		}
	}
	return inv
}

// PaidAmount sums amount plus settlement discount over the payments that
// target id. An empty id matches nothing.
func PaidAmount(id dataset.ID, payments []dataset.Payment) decimal.Decimal {
	paid := decimal.Zero
	if id.Empty() {
		return paid
	}
	for _, p := range payments {
		if p.InvoiceID == id {
			paid = paid.Add(p.Settled())
		}
	}
	return paid
}

// StatusOf derives status, paid amount and balance of inv. Payments for
// other invoices are ignored, so the full list may be passed.
func StatusOf(inv Invoice, payments []dataset.Payment) Status {
	if inv.ID.Empty() {
		return Status{Status: StatusCredit, PaidAmount: decimal.Zero, Balance: inv.Total}
	}

	paid := PaidAmount(inv.ID, payments)
	balance := inv.Total.Sub(paid)
	if balance.LessThanOrEqual(balanceEpsilon) {
		balance = decimal.Zero
	}

	roundedPaid := money.RoundCents(paid)
	roundedTotal := money.RoundCents(inv.Total)
	code := StatusCredit
	switch {
	case roundedTotal.Sign() > 0 && roundedPaid.GreaterThanOrEqual(roundedTotal):
		code = StatusPaid
	case roundedPaid.Sign() > 0:
		code = StatusPartial
	}
	return Status{InvoiceID: inv.ID, Status: code, PaidAmount: paid, Balance: balance}
}

// Find resolves id against sales first, then purchases.
func Find(ds dataset.Dataset, id dataset.ID) (Invoice, bool) {
	if s, ok := ds.FindSale(id); ok {
		return FromSale(s), true
	}
	if p, ok := ds.FindPurchase(id); ok {
		return FromPurchase(p), true
	}
	return Invoice{}, false
}

// Outstanding lists every sale and purchase that is not fully paid, sales
// first, each in input order.
func Outstanding(ds dataset.Dataset) []Status {
	var out []Status
	add := func(inv Invoice) {
		if st := StatusOf(inv, ds.Payments); st.Status != StatusPaid {
			out = append(out, st)
		}
	}
	for _, s := range ds.Sales {
		add(FromSale(s))
	}
	for _, p := range ds.Purchases {
		add(FromPurchase(p))
	}
	return out
}
