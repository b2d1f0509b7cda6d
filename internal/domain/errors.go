package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrStoreCorrupt signals an unparsable or invalid knowledge base file.
	// It is distinct from an absent store, which simply means nothing has
	// been indexed yet.
	ErrStoreCorrupt = errors.New("knowledge base corrupt")
	// ErrInvalidDocument signals a record missing required fields.
	ErrInvalidDocument = errors.New("invalid document record")
	// ErrDuplicateDocument signals two records sharing a filename.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrVectorDimMismatch signals mixed embedding dimensionalities.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidSegment signals a filter value outside the vocabulary.
	ErrInvalidSegment = errors.New("unknown segment")
	// ErrDocumentNotFound signals a missing source document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrExtractionFailed signals an unreadable or unparsable PDF.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnswerProviderError signals a generative model failure.
	ErrAnswerProviderError = errors.New("answer provider error")
)
