package docstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/odyssey-erp/lotledger/internal/dataset"
)

// FileStore keeps one JSON file per dataset. The revision combines the file's
// modification time with an xxhash of its content, so a rewrite inside one
// mtime tick or a restore that keeps timestamps still changes it.
type FileStore struct {
	mu   sync.Mutex
	path func(id string) string
}

// NewFileStore stores dataset id under dir/<id>.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: func(id string) string {
		return filepath.Join(dir, filepath.Base(id)+".json")
	}}
}

// NewSingleFileStore serves every id from one file. The CLI works this way.
func NewSingleFileStore(path string) *FileStore {
	return &FileStore{path: func(string) string { return path }}
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, id string) (*dataset.Document, int64, error) {
	path := s.path(id)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, wrap("load", id, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, wrap("load", id, err)
	}
	doc, err := decode(id, raw)
	if err != nil {
		return nil, 0, err
	}
	return doc, fileRevision(info.ModTime(), raw), nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target.
func (s *FileStore) Save(_ context.Context, id string, doc *dataset.Document) (int64, error) {
	raw, err := encode(id, doc)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, wrap("save", id, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lotledger-*")
	if err != nil {
		return 0, wrap("save", id, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return 0, wrap("save", id, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, wrap("save", id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, wrap("save", id, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, wrap("save", id, err)
	}
	return fileRevision(info.ModTime(), raw), nil
}

// fileRevision folds the content hash into the mtime and keeps the result
// positive.
func fileRevision(mtime time.Time, content []byte) int64 {
	rev := int64((uint64(mtime.UnixNano()) ^ xxhash.Sum64(content)) &^ (1 << 63))
	if rev == 0 {
		rev = 1
	}
	return rev
}
