package indexing

import "github.com/escola-labs/bulletindex/internal/domain"

// Extractor pulls plain text out of a source PDF.
type Extractor interface {
	Extract(path string) (string, error)
}

// Store loads and persists the knowledge base.
type Store interface {
	Load() (*domain.KnowledgeBase, error)
	Save(base *domain.KnowledgeBase) error
}
