// Package health aggregates component checks for the readiness endpoint.
package health

import (
	"context"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results with knowledge base statistics.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
	Chunks    int
	Dimension int
}

// Service coordinates health checks over the loaded knowledge base and the
// optional external dependencies.
type Service struct {
	base      *domain.KnowledgeBase
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(base *domain.KnowledgeBase, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{base: base, cache: cache, embedding: embedding}
}

// Check runs health checks against all configured components. The knowledge
// base is in-memory and always passes once the process is up; an empty base
// is reported through the statistics, not as a failure.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		"knowledge_base": CheckOK,
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:    status,
		Checks:    checks,
		Documents: s.base.Len(),
		Chunks:    s.base.ChunkCount(),
		Dimension: s.base.Dimension(),
	}
}
