package domain

import "fmt"

// Chunk is one embedded window of a document's extracted text.
type Chunk struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// Document is one indexed bulletin: the source PDF filename, the audience
// segments derived from it, and the embedded chunks of its text.
// Documents are immutable once appended to a knowledge base.
type Document struct {
	File     string    `json:"file"`
	Segments []Segment `json:"segments"`
	Chunks   []Chunk   `json:"chunks"`
}

// Validate checks the record invariants enforced at the store boundary.
func (d Document) Validate() error {
	if d.File == "" {
		return fmt.Errorf("document without filename: %w", ErrInvalidDocument)
	}
	if len(d.Segments) == 0 {
		return fmt.Errorf("document %q has no segments: %w", d.File, ErrInvalidDocument)
	}
	for i, c := range d.Chunks {
		if c.Text == "" {
			return fmt.Errorf("document %q chunk %d has empty text: %w", d.File, i, ErrInvalidDocument)
		}
		if len(c.Vector) == 0 {
			return fmt.Errorf("document %q chunk %d has empty vector: %w", d.File, i, ErrInvalidDocument)
		}
	}
	return nil
}

// EligibleFor reports whether the document may be retrieved under the given
// segment filter: a direct tag match, or the wildcard General tag.
func (d Document) EligibleFor(s Segment) bool {
	for _, tag := range d.Segments {
		if tag == s || tag == SegmentGeneral {
			return true
		}
	}
	return false
}

// KnowledgeBase is the ordered collection of indexed documents, uniquely
// keyed by filename. All chunk vectors share a single dimensionality.
type KnowledgeBase struct {
	docs []Document
	dim  int
}

// NewKnowledgeBase builds a knowledge base from existing records, enforcing
// filename uniqueness, per-record validity, and uniform vector dimension.
func NewKnowledgeBase(docs []Document) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{}
	for _, d := range docs {
		if err := kb.Append(d); err != nil {
			return nil, err
		}
	}
	return kb, nil
}

// Append adds a document record. It rejects duplicate filenames and vectors
// whose dimension differs from the rest of the base.
func (kb *KnowledgeBase) Append(d Document) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if kb.Contains(d.File) {
		return fmt.Errorf("document %q: %w", d.File, ErrDuplicateDocument)
	}
	for i, c := range d.Chunks {
		if kb.dim == 0 {
			kb.dim = len(c.Vector)
			continue
		}
		if len(c.Vector) != kb.dim {
			return fmt.Errorf(
				"document %q chunk %d: got dimension %d, want %d: %w",
				d.File, i, len(c.Vector), kb.dim, ErrVectorDimMismatch,
			)
		}
	}
	kb.docs = append(kb.docs, d)
	return nil
}

// Documents returns the records in insertion order. The slice is shared;
// callers must treat it as read-only.
func (kb *KnowledgeBase) Documents() []Document { return kb.docs }

// Contains reports whether a filename is already indexed.
func (kb *KnowledgeBase) Contains(file string) bool {
	for _, d := range kb.docs {
		if d.File == file {
			return true
		}
	}
	return false
}

// Keys returns the set of indexed filenames, the membership test for
// incremental indexing.
func (kb *KnowledgeBase) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(kb.docs))
	for _, d := range kb.docs {
		keys[d.File] = struct{}{}
	}
	return keys
}

// Len returns the number of indexed documents.
func (kb *KnowledgeBase) Len() int { return len(kb.docs) }

// ChunkCount returns the total number of chunks across all documents.
func (kb *KnowledgeBase) ChunkCount() int {
	var n int
	for _, d := range kb.docs {
		n += len(d.Chunks)
	}
	return n
}

// Dimension returns the embedding dimensionality, or 0 for an empty base.
func (kb *KnowledgeBase) Dimension() int { return kb.dim }
