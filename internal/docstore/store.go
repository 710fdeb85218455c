// Package docstore persists the business dataset as one JSON document per
// dataset id. Every backend reads and writes the document wholesale and
// reports a revision that increases with each save.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// ErrNotFound is returned when no document is stored under the id.
var ErrNotFound = errors.New("docstore: not found")

// Store is the document store collaborator.
type Store interface {
	Load(ctx context.Context, id string) (*dataset.Document, int64, error)
	Save(ctx context.Context, id string, doc *dataset.Document) (int64, error)
}

// Error wraps a backend failure with the operation and dataset id. The
// backend's own message is kept.
type Error struct {
	Op  string
	ID  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, id string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &Error{Op: op, ID: id, Err: err}
}

func encode(id string, doc *dataset.Document) ([]byte, error) {
	if doc == nil {
		doc = dataset.NewDocument()
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, wrap("encode", id, err)
	}
	return raw, nil
}

func decode(id string, raw []byte) (*dataset.Document, error) {
	doc, err := dataset.ParseDocument(raw)
	if err != nil {
		return nil, wrap("decode", id, err)
	}
	return doc, nil
}
