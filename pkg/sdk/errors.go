package bulletindex

import (
	"errors"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidSegment         = domain.ErrInvalidSegment
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// ErrUnauthorized indicates a missing or invalid API key.
var ErrUnauthorized = errors.New("unauthorized")
