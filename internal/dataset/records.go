package dataset

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lotledger/internal/money"
)

// Item is reference data for a stocked product.
type Item struct {
	ID                ID      `json:"id"`
	Name              string  `json:"name"`
	SKU               string  `json:"sku,omitempty"`
	Unit              string  `json:"unit,omitempty"`
	HasIMEI           bool    `json:"hasImei,omitempty"`
	LowStockThreshold *Amount `json:"lowStockThreshold,omitempty"`
	PurchasePrice     *Amount `json:"purchasePrice,omitempty"`
	SalePrice         *Amount `json:"salePrice,omitempty"`
}

// FallbackCost is the static purchase price charged when lots run out.
func (i Item) FallbackCost() decimal.Decimal {
	return i.PurchasePrice.Dec()
}

// PurchaseLine is one item row on a purchase.
type PurchaseLine struct {
	ItemID           ID      `json:"itemId"`
	Quantity         Amount  `json:"quantity"`
	UnitPriceLocal   *Amount `json:"unit_price_local,omitempty"`
	UnitPriceForeign *Amount `json:"unit_price_foreign,omitempty"`
}

// Purchase is a supplier invoice. It preserves unknown JSON members so it can
// be written back wholesale.
type Purchase struct {
	ID               ID             `json:"id"`
	Date             Date           `json:"date"`
	Items            []PurchaseLine `json:"items"`
	Currency         string         `json:"currency,omitempty"`
	FXRateToBusiness *Amount        `json:"fx_rate_to_business,omitempty"`
	TotalCost        *Amount        `json:"totalCost,omitempty"`
	TotalCostBase    *Amount        `json:"totalCost_base,omitempty"`
	PaidAmount       *Amount        `json:"paidAmount,omitempty"`

	raw map[string]json.RawMessage
}

// Rate is the conversion rate to the business currency. A missing or zero
// rate means the purchase is already in business currency.
func (p Purchase) Rate() decimal.Decimal {
	rate := p.FXRateToBusiness.Dec()
	if rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
}

// UnitCost resolves the business-currency unit cost of a line: the local
// price when present and non-zero, otherwise the foreign price converted at
// Rate.
func (p Purchase) UnitCost(line PurchaseLine) money.Money {
	if local := line.UnitPriceLocal.Dec(); line.UnitPriceLocal != nil && !local.IsZero() {
		return money.Base(local)
	}
	if line.UnitPriceForeign != nil {
		return money.New(line.UnitPriceForeign.Dec(), p.Currency).Convert(p.Rate(), "")
	}
	return money.Base(line.UnitPriceLocal.Dec())
}

// SetPaidAmount updates paidAmount on the typed record and its raw members
// without touching the caller's copy.
func (p *Purchase) SetPaidAmount(v decimal.Decimal) {
	a := NewAmount(v)
	p.PaidAmount = &a
	p.raw = withMember(p.raw, "paidAmount", a)
}

// UnmarshalJSON decodes leniently and keeps every member for write-back.
func (p *Purchase) UnmarshalJSON(data []byte) error {
	type alias Purchase
	var a alias
	raw, err := decodeRecord(data, &a)
	if err != nil {
		return err
	}
	*p = Purchase(a)
	p.raw = raw
	return nil
}

// MarshalJSON emits the preserved members when the record was decoded.
func (p Purchase) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return json.Marshal(p.raw)
	}
	type alias Purchase
	return json.Marshal(alias(p))
}

// SaleLine is one item row on a sale.
type SaleLine struct {
	ItemID   ID       `json:"itemId"`
	Quantity Amount   `json:"quantity"`
	Price    Amount   `json:"price"`
	Serials  []string `json:"serials,omitempty"`
}

// Discount types.
const (
	DiscountFlat    = "flat"
	DiscountPercent = "percent"
)

// Discount is a sale-level discount, either a flat amount or a percentage of
// revenue.
type Discount struct {
	Type  string `json:"type"`
	Value Amount `json:"value"`
}

// IsPercent reports whether the discount is a percentage.
func (d Discount) IsPercent() bool {
	switch strings.ToLower(strings.TrimSpace(d.Type)) {
	case "percent", "percentage", "%":
		return true
	default:
		return false
	}
}

// AmountOn resolves the discount against revenue.
func (d *Discount) AmountOn(revenue decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	if d.IsPercent() {
		return revenue.Mul(d.Value.Decimal).Div(decimal.NewFromInt(100))
	}
	return d.Value.Decimal
}

// UnmarshalJSON accepts the {type, value} object as well as a bare number,
// which is read as a flat discount.
func (d *Discount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type alias Discount
		var a alias
		if err := lenient(json.Unmarshal(data, &a)); err != nil {
			return err
		}
		*d = Discount(a)
		return nil
	}
	*d = Discount{Type: DiscountFlat, Value: NewAmount(coerceJSON(data))}
	return nil
}

// Sale is a customer invoice. It preserves unknown JSON members so it can be
// written back wholesale.
type Sale struct {
	ID            ID         `json:"id"`
	Date          Date       `json:"date"`
	Items         []SaleLine `json:"items"`
	Discount      *Discount  `json:"discount,omitempty"`
	TotalCost     *Amount    `json:"totalCost,omitempty"`
	TotalCostBase *Amount    `json:"totalCost_base,omitempty"`
	PaidAmount    *Amount    `json:"paidAmount,omitempty"`

	raw map[string]json.RawMessage
}

// Revenue is Σ(price × quantity) over the sale lines.
func (s Sale) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Items {
		total = total.Add(line.Price.Mul(line.Quantity.Decimal))
	}
	return total
}

// DiscountAmount resolves the sale discount against its revenue.
func (s Sale) DiscountAmount() decimal.Decimal {
	return s.Discount.AmountOn(s.Revenue())
}

// SetPaidAmount updates paidAmount on the typed record and its raw members
// without touching the caller's copy.
func (s *Sale) SetPaidAmount(v decimal.Decimal) {
	a := NewAmount(v)
	s.PaidAmount = &a
	s.raw = withMember(s.raw, "paidAmount", a)
}

// UnmarshalJSON decodes leniently and keeps every member for write-back.
func (s *Sale) UnmarshalJSON(data []byte) error {
	type alias Sale
	var a alias
	raw, err := decodeRecord(data, &a)
	if err != nil {
		return err
	}
	*s = Sale(a)
	s.raw = raw
	return nil
}

// MarshalJSON emits the preserved members when the record was decoded.
func (s Sale) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return json.Marshal(s.raw)
	}
	type alias Sale
	return json.Marshal(alias(s))
}

// Payment settles (part of) a sale or purchase.
type Payment struct {
	ID        ID     `json:"id,omitempty"`
	InvoiceID ID     `json:"invoiceId"`
	Amount    Amount `json:"amount"`
	Discount  Amount `json:"discount"`
	Date      Date   `json:"date"`
	Method    string `json:"method,omitempty"`
}

// Settled is the amount plus any settlement discount granted.
func (p Payment) Settled() decimal.Decimal {
	return p.Amount.Add(p.Discount.Decimal)
}

func decodeRecord(data []byte, typed any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	if err := lenient(json.Unmarshal(data, typed)); err != nil {
		return nil, err
	}
	return raw, nil
}

// withMember returns a copy of raw with key set to the encoding of v.
func withMember(raw map[string]json.RawMessage, key string, v any) map[string]json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(raw)+1)
	for k, val := range raw {
		out[k] = val
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return out
	}
	out[key] = encoded
	return out
}
