// Package kb persists the knowledge base as a single JSON file: an ordered
// array of document records with their segment tags and chunk vectors. The
// encoding is human-diffable UTF-8 with Unicode left unescaped, and every
// vector round-trips at full float precision.
package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// Store is a file-backed knowledge base store. The indexer is its only
// writer; query-time readers work on the snapshot returned by Load.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates a store over the given file path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads the knowledge base from disk. An absent file is not an error:
// it means nothing has been indexed yet, and an empty base is returned. An
// unparsable or invalid file is reported as ErrStoreCorrupt so callers can
// tell data damage apart from an empty corpus.
func (s *Store) Load() (*domain.KnowledgeBase, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("No knowledge base file yet, starting empty", zap.String("path", s.path))
			return &domain.KnowledgeBase{}, nil
		}
		return nil, fmt.Errorf("read knowledge base %s: %w", s.path, err)
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %v: %w", s.path, err, domain.ErrStoreCorrupt)
	}

	base, err := domain.NewKnowledgeBase(docs)
	if err != nil {
		// Records that parse but violate invariants (duplicate filename,
		// missing fields, mixed vector dimensions) are damage, not input.
		return nil, fmt.Errorf("validate knowledge base %s: %v: %w", s.path, err, domain.ErrStoreCorrupt)
	}

	return base, nil
}

// Keys returns the set of indexed filenames, the membership test for
// incremental builds.
func (s *Store) Keys() (map[string]struct{}, error) {
	base, err := s.Load()
	if err != nil {
		return nil, err
	}
	return base.Keys(), nil
}

// Save writes the knowledge base atomically: encode into a temporary file
// in the same directory, fsync, then rename over the target, so a crash
// mid-write can never leave a partially written store behind.
func (s *Store) Save(base *domain.KnowledgeBase) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-ops after a successful rename.
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	docs := base.Documents()
	if docs == nil {
		docs = []domain.Document{}
	}
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode knowledge base: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace knowledge base %s: %w", s.path, err)
	}

	s.logger.Info("Knowledge base saved",
		zap.String("path", s.path),
		zap.Int("documents", base.Len()),
		zap.Int("chunks", base.ChunkCount()),
	)
	return nil
}
