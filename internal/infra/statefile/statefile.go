package infra_statefile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"leancoffee/core/internal/model"
)

// Store persists the whole meeting registry as one JSON document keyed by
// meeting code, overwritten wholesale on every save. It doubles as the
// compatibility layer for documents written by earlier schema versions.
type Store struct {
	path   string
	logger *slog.Logger
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the current registry, creating the data directory when needed.
func (s *Store) Save(meetings []*model.Meeting) error {
	doc := make(document, len(meetings))
	for _, m := range meetings {
		if m == nil || m.ID == "" {
			continue
		}
		doc[m.ID] = toRecord(m)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Load reads the durable document. A missing file is a fresh install and
// yields an empty registry. Ledger entries are normalized out of whatever
// historical encoding they were written in.
func (s *Store) Load() ([]*model.Meeting, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	meetings := make([]*model.Meeting, 0, len(doc))
	for id, rec := range doc {
		m := rec.toModel()
		if m.ID == "" {
			m.ID = id
		}
		meetings = append(meetings, m)
	}

	s.logger.Info("state loaded", "path", s.path, "meetings", len(meetings))
	return meetings, nil
}
