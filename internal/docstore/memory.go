package docstore

import (
	"context"
	"sync"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

type memoryEntry struct {
	raw      []byte
	revision int64
}

// MemoryStore keeps encoded documents in process. Callers never share a
// document with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]memoryEntry{}}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (*dataset.Document, int64, error) {
	s.mu.RLock()
	entry, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, 0, ErrNotFound
	}
	doc, err := decode(id, entry.raw)
	if err != nil {
		return nil, 0, err
	}
	return doc, entry.revision, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, id string, doc *dataset.Document) (int64, error) {
	raw, err := encode(id, doc)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := s.docs[id].revision + 1
	s.docs[id] = memoryEntry{raw: raw, revision: rev}
	return rev, nil
}
