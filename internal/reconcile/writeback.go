package reconcile

import (
	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// Payload is a partial update of the dataset document. A collection is
// present only when one of its records was recomputed; when present it holds
// the whole typed collection, which is also what the HTTP response shows.
type Payload struct {
	Sales     []dataset.Sale     `json:"sales,omitempty"`
	Purchases []dataset.Purchase `json:"purchases,omitempty"`
}

// Empty reports whether the payload changes nothing.
func (p Payload) Empty() bool {
	return p.Sales == nil && p.Purchases == nil
}

// WriteBack recomputes paidAmount from ds.Payments for every sale and
// purchase whose id is in changed. Unknown ids are skipped. The records of ds
// are not modified, and running it again on the result yields the same
// payload.
func WriteBack(ds dataset.Dataset, changed []dataset.ID) Payload {
	want := make(map[dataset.ID]struct{}, len(changed))
	for _, id := range changed {
		if !id.Empty() {
			want[id] = struct{}{}
		}
	}

	var payload Payload
	if len(want) == 0 {
		return payload
	}

	sales := make([]dataset.Sale, len(ds.Sales))
	copy(sales, ds.Sales)
	touched := false
	for i := range sales {
		if _, ok := want[sales[i].ID]; ok {
			sales[i].SetPaidAmount(PaidAmount(sales[i].ID, ds.Payments))
			touched = true
		}
	}
	if touched {
		payload.Sales = sales
	}

	purchases := make([]dataset.Purchase, len(ds.Purchases))
	copy(purchases, ds.Purchases)
	touched = false
	for i := range purchases {
		if _, ok := want[purchases[i].ID]; ok {
			purchases[i].SetPaidAmount(PaidAmount(purchases[i].ID, ds.Payments))
			touched = true
		}
	}
	if touched {
		payload.Purchases = purchases
	}
	return payload
}

// Apply merges payload into a copy of doc. Only paidAmount is written, and
// only into the stored sale and purchase elements whose value changed. Every
// other element, including entries the typed view skips, and every other
// member is carried over byte for byte.
func Apply(doc *dataset.Document, payload Payload) (*dataset.Document, error) {
	out := doc.Clone()
	if payload.Sales != nil {
		paid := make(map[dataset.ID]dataset.Amount, len(payload.Sales))
		for _, sale := range payload.Sales {
			if _, seen := paid[sale.ID]; !seen && sale.PaidAmount != nil {
				paid[sale.ID] = *sale.PaidAmount
			}
		}
		if err := patchPaid(out, dataset.KeySales, paid, payload.Sales); err != nil {
			return nil, err
		}
	}
	if payload.Purchases != nil {
		paid := make(map[dataset.ID]dataset.Amount, len(payload.Purchases))
		for _, purchase := range payload.Purchases {
			if _, seen := paid[purchase.ID]; !seen && purchase.PaidAmount != nil {
				paid[purchase.ID] = *purchase.PaidAmount
			}
		}
		if err := patchPaid(out, dataset.KeyPurchases, paid, payload.Purchases); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// patchPaid sets paidAmount on the stored elements of key listed in paid.
// A member that is missing or not an array is replaced by fallback.
func patchPaid(doc *dataset.Document, key string, paid map[dataset.ID]dataset.Amount, fallback any) error {
	elems, ok := doc.Records(key)
	if !ok {
		return doc.Set(key, fallback)
	}
	for i, elem := range elems {
		head, ok := dataset.Head(elem)
		if !ok {
			continue
		}
		amount, ok := paid[head.ID]
		if !ok {
			continue
		}
		if head.PaidAmount != nil && head.PaidAmount.Dec().Equal(amount.Dec()) {
			continue
		}
		patched, err := dataset.WithMember(elem, "paidAmount", amount)
		if err != nil {
			return err
		}
		elems[i] = patched
	}
	return doc.SetRecords(key, elems)
}
