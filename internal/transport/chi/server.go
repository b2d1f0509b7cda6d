// Package chi exposes the question answering API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
	answeruc "github.com/escola-labs/bulletindex/internal/usecase/answer"
	healthuc "github.com/escola-labs/bulletindex/internal/usecase/health"
)

// Error response codes.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodeInvalidSegment         = "invalid_segment"
	CodeDocumentNotFound       = "document_not_found"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeInternalError          = "internal_error"
)

// Asker answers a parent's question scoped to a segment.
type Asker interface {
	Ask(ctx context.Context, question string, segment domain.Segment) (answeruc.Response, error)
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services to the chi router.
type Server struct {
	asker         Asker
	health        *healthuc.Service
	base          *domain.KnowledgeBase
	corpusDir     string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. corpusDir is the folder the source
// PDFs are served from for downloads.
func NewServer(
	asker Asker,
	health *healthuc.Service,
	base *domain.KnowledgeBase,
	corpusDir string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		asker:     asker,
		health:    health,
		base:      base,
		corpusDir: corpusDir,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSegment, http.StatusBadRequest, CodeInvalidSegment),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chirouter.Router) {
	r.Post("/v1/ask", s.Ask)
	r.Get("/v1/segments", s.ListSegments)
	r.Get("/v1/documents/{filename}", s.DownloadDocument)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// AskRequest is the POST /v1/ask payload.
type AskRequest struct {
	Question string `json:"question"`
	Segment  string `json:"segment"`
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Question is required")
		return
	}

	segment, err := domain.ParseSegment(req.Segment)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.asker.Ask(r.Context(), req.Question, segment)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SegmentInfo is one selectable audience segment.
type SegmentInfo struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ListSegments handles GET /v1/segments, the vocabulary the UI builds its
// segment picker from.
func (s *Server) ListSegments(w http.ResponseWriter, _ *http.Request) {
	vocab := domain.Vocabulary()
	items := make([]SegmentInfo, len(vocab))
	for i, seg := range vocab {
		items[i] = SegmentInfo{Code: string(seg), Label: seg.Label()}
	}
	writeJSON(w, http.StatusOK, map[string][]SegmentInfo{"segments": items})
}

// DownloadDocument handles GET /v1/documents/{filename}. Only files present
// in the knowledge base are served, which also rules out path traversal:
// indexed names are plain filenames inside the corpus folder.
func (s *Server) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	filename := chirouter.URLParam(r, "filename")

	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Invalid document name")
		return
	}
	if !s.base.Contains(filename) {
		writeError(w, http.StatusNotFound, CodeDocumentNotFound, domain.ErrDocumentNotFound.Error())
		return
	}

	path := filepath.Join(s.corpusDir, filename)
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("Indexed document missing from corpus folder",
			zap.String("file", filename), zap.Error(err))
		writeError(w, http.StatusNotFound, CodeDocumentNotFound, domain.ErrDocumentNotFound.Error())
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    report.Status,
		"checks":    report.Checks,
		"documents": report.Documents,
		"chunks":    report.Chunks,
		"dimension": report.Dimension,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidSegment,
		domain.ErrDocumentNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrAnswerProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
