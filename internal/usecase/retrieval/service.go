// Package retrieval answers "which indexed chunks are most relevant to this
// question, for this audience" with an exact linear scan over the in-memory
// knowledge base.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
	"github.com/escola-labs/bulletindex/internal/metrics"
)

// DefaultTopK is the number of hits returned when the caller does not ask
// for a specific count.
const DefaultTopK = 4

// Service scores every eligible chunk against the query embedding. The
// knowledge base is a read-only snapshot; retrieval never mutates it.
type Service struct {
	base     *domain.KnowledgeBase
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates a retrieval service over a loaded knowledge base.
func New(base *domain.KnowledgeBase, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{base: base, embedder: embedder, logger: logger}
}

// Retrieve embeds the query and returns the k best-scoring chunks from
// documents eligible for the segment, ordered by descending dot product.
// Equal scores keep scan order, so results are deterministic for a given
// base. A query embedding failure returns no hits and a non-nil error;
// there is no degraded keyword fallback. A query vector whose dimension
// differs from the base's is rejected with ErrVectorDimMismatch rather
// than scored against a truncated prefix.
func (s *Service) Retrieve(ctx context.Context, query string, segment domain.Segment, k int) ([]domain.Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(segment), "error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if dim := s.base.Dimension(); dim > 0 && len(result.Embedding) != dim {
		metrics.RetrievalRequestsTotal.WithLabelValues(string(segment), "error").Inc()
		return nil, fmt.Errorf(
			"query embedding has dimension %d, knowledge base has %d: %w",
			len(result.Embedding), dim, domain.ErrVectorDimMismatch,
		)
	}

	start := time.Now()
	var hits []domain.Hit
	var scanned int
	for _, doc := range s.base.Documents() {
		if !doc.EligibleFor(segment) {
			continue
		}
		for _, chunk := range doc.Chunks {
			hits = append(hits, domain.Hit{
				Text:   chunk.Text,
				Source: doc.File,
				Score:  domain.DotProduct(result.Embedding, chunk.Vector),
			})
			scanned++
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	metrics.RetrievalRequestsTotal.WithLabelValues(string(segment), "success").Inc()
	metrics.RetrievalScanDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalChunksScanned.Observe(float64(scanned))

	s.logger.Debug("Retrieval scan complete",
		zap.String("segment", string(segment)),
		zap.Int("chunks_scanned", scanned),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}
