package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Top-level members of the business dataset document.
const (
	KeyItems     = "items"
	KeyPurchases = "purchases"
	KeySales     = "sales"
	KeyPayments  = "payments"
)

// Dataset is the typed view of the records the costing core reads.
type Dataset struct {
	Items     []Item     `json:"items"`
	Purchases []Purchase `json:"purchases"`
	Sales     []Sale     `json:"sales"`
	Payments  []Payment  `json:"payments"`
}

// ItemIndex maps item ids to their reference data.
func (d Dataset) ItemIndex() map[ID]Item {
	index := make(map[ID]Item, len(d.Items))
	for _, item := range d.Items {
		if _, exists := index[item.ID]; !exists {
			index[item.ID] = item
		}
	}
	return index
}

// FindSale returns the first sale with id.
func (d Dataset) FindSale(id ID) (Sale, bool) {
	for _, sale := range d.Sales {
		if sale.ID == id {
			return sale, true
		}
	}
	return Sale{}, false
}

// FindPurchase returns the first purchase with id.
func (d Dataset) FindPurchase(id ID) (Purchase, bool) {
	for _, purchase := range d.Purchases {
		if purchase.ID == id {
			return purchase, true
		}
	}
	return Purchase{}, false
}

// Document is the whole business dataset as stored externally. Members the
// core does not understand are carried through untouched.
type Document struct {
	members map[string]json.RawMessage
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{members: map[string]json.RawMessage{}}
}

// ParseDocument decodes a stored document. The top level must be an object.
func ParseDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDataset encodes a typed dataset as a fresh document.
func FromDataset(ds Dataset) (*Document, error) {
	doc := NewDocument()
	for key, value := range map[string]any{
		KeyItems:     ds.Items,
		KeyPurchases: ds.Purchases,
		KeySales:     ds.Sales,
		KeyPayments:  ds.Payments,
	} {
		if err := doc.Set(key, value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("dataset: document: %w", err)
	}
	if members == nil {
		members = map[string]json.RawMessage{}
	}
	d.members = members
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil || d.members == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.members)
}

// Keys lists the members in sorted order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.members))
	for k := range d.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the encoded member, nil when absent.
func (d *Document) Raw(key string) json.RawMessage {
	if d == nil {
		return nil
	}
	return d.members[key]
}

// Set replaces a member with the encoding of v.
func (d *Document) Set(key string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("dataset: encode %s: %w", key, err)
	}
	if d.members == nil {
		d.members = map[string]json.RawMessage{}
	}
	d.members[key] = encoded
	return nil
}

// Records returns the raw elements of an array member in stored order,
// including elements Dataset skips. ok is false when the member is absent or
// not an array. The returned slice is the caller's to modify.
func (d *Document) Records(key string) (elems []json.RawMessage, ok bool) {
	raw := d.Raw(key)
	if len(raw) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil, false
	}
	return elems, true
}

// SetRecords replaces an array member with elems, each emitted as given.
func (d *Document) SetRecords(key string, elems []json.RawMessage) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range elems {
		if !json.Valid(elem) {
			return fmt.Errorf("dataset: encode %s: element %d is not valid JSON", key, i)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(elem)
	}
	buf.WriteByte(']')
	if d.members == nil {
		d.members = map[string]json.RawMessage{}
	}
	d.members[key] = buf.Bytes()
	return nil
}

// RecordHead is the identity and settlement state of one raw sale or
// purchase.
type RecordHead struct {
	ID         ID      `json:"id"`
	PaidAmount *Amount `json:"paidAmount"`
}

// Head decodes the head of a raw record. ok is false for elements that are
// not objects, which Dataset skips as well.
func Head(elem json.RawMessage) (head RecordHead, ok bool) {
	if !isObject(elem) {
		return RecordHead{}, false
	}
	if err := lenient(json.Unmarshal(elem, &head)); err != nil {
		return RecordHead{}, false
	}
	return head, true
}

// WithMember returns a copy of the raw record elem with key set to the
// encoding of v. Every other member keeps its stored value.
func WithMember(elem json.RawMessage, key string, v any) (json.RawMessage, error) {
	if !isObject(elem) {
		return nil, fmt.Errorf("dataset: set %s: record is not an object", key)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(elem, &members); err != nil {
		return nil, fmt.Errorf("dataset: set %s: %w", key, err)
	}
	members = withMember(members, key, v)
	return json.Marshal(members)
}

func isObject(elem json.RawMessage) bool {
	trimmed := bytes.TrimSpace(elem)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Clone returns a shallow copy; members are immutable byte slices.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	for k, v := range d.members {
		out.members[k] = v
	}
	return out
}

// Dataset decodes the typed view. Malformed records are skipped and a
// malformed collection reads as empty.
func (d *Document) Dataset() Dataset {
	return Dataset{
		Items:     decodeCollection[Item](d.Raw(KeyItems)),
		Purchases: decodeCollection[Purchase](d.Raw(KeyPurchases)),
		Sales:     decodeCollection[Sale](d.Raw(KeySales)),
		Payments:  decodeCollection[Payment](d.Raw(KeyPayments)),
	}
}

func decodeCollection[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		if !isObject(elem) {
			continue
		}
		var v T
		if err := lenient(json.Unmarshal(elem, &v)); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// lenient drops type mismatches; json.Unmarshal still fills every other field.
func lenient(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}
