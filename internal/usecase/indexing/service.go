// Package indexing builds the knowledge base incrementally: only PDFs not
// already present in the store are extracted, tagged, chunked, and embedded.
// Previously indexed documents are never removed or re-embedded.
package indexing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// Report summarizes one indexing run.
type Report struct {
	ScannedFiles     int // PDFs found in the folder
	NewFiles         int // not yet present in the store
	IndexedDocuments int // successfully appended this run
	SkippedDocuments int // extraction failed, document skipped whole
	SkippedChunks    int // embedding failed, chunk dropped
}

// Service orchestrates extract → tag → chunk → embed → persist.
type Service struct {
	store        Store
	extractor    Extractor
	embedder     domain.Embedder
	limiter      *rate.Limiter
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
	progress     func(file string)
}

// New creates an indexer. minInterval is the minimum delay between
// successive embedding calls, the provider's quota contract; chunkOverlap
// must be smaller than chunkSize (config validation enforces this).
func New(
	store Store,
	extractor Extractor,
	embedder domain.Embedder,
	minInterval time.Duration,
	chunkSize, chunkOverlap int,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:        store,
		extractor:    extractor,
		embedder:     embedder,
		limiter:      rate.NewLimiter(rate.Every(minInterval), 1),
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// WithProgress registers a callback invoked after each new document is
// processed, for CLI progress reporting.
func (s *Service) WithProgress(fn func(file string)) *Service {
	s.progress = fn
	return s
}

// Build indexes every new PDF in folder and persists the merged base.
// Running it twice over an unchanged folder is a no-op: the store is not
// rewritten when there is nothing new. One bad input never aborts the
// batch: extraction failures skip the document, embedding failures skip
// the chunk.
func (s *Service) Build(ctx context.Context, folder string) (Report, error) {
	var report Report

	base, err := s.store.Load()
	if err != nil {
		return report, fmt.Errorf("load knowledge base: %w", err)
	}
	existing := base.Keys()

	newFiles, scanned, err := listNewPDFs(folder, existing)
	if err != nil {
		return report, err
	}
	report.ScannedFiles = scanned
	report.NewFiles = len(newFiles)

	if len(newFiles) == 0 {
		s.logger.Info("Knowledge base already up to date",
			zap.Int("indexed", base.Len()),
			zap.Int("scanned", scanned),
		)
		return report, nil
	}

	s.logger.Info("Indexing new bulletins",
		zap.Int("new", len(newFiles)),
		zap.Int("already_indexed", base.Len()),
	)

	for _, file := range newFiles {
		doc, chunksSkipped, err := s.buildDocument(ctx, folder, file)
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("indexing interrupted: %w", ctx.Err())
			}
			s.logger.Warn("Skipping document", zap.String("file", file), zap.Error(err))
			report.SkippedDocuments++
			continue
		}
		report.SkippedChunks += chunksSkipped

		if err := base.Append(doc); err != nil {
			s.logger.Warn("Rejected document record", zap.String("file", file), zap.Error(err))
			report.SkippedDocuments++
			continue
		}
		report.IndexedDocuments++

		if s.progress != nil {
			s.progress(file)
		}
	}

	if err := s.store.Save(base); err != nil {
		return report, fmt.Errorf("save knowledge base: %w", err)
	}
	return report, nil
}

// buildDocument runs the per-file pipeline. A failed extraction fails the
// whole document; a failed embedding only drops that chunk.
func (s *Service) buildDocument(ctx context.Context, folder, file string) (domain.Document, int, error) {
	text, err := s.extractor.Extract(filepath.Join(folder, file))
	if err != nil {
		return domain.Document{}, 0, err
	}

	doc := domain.Document{
		File:     file,
		Segments: domain.TagFilename(file),
	}
	chunks := domain.ChunkText(text, s.chunkSize, s.chunkOverlap)

	s.logger.Info("Processing bulletin",
		zap.String("file", file),
		zap.Any("segments", doc.Segments),
		zap.Int("chunks", len(chunks)),
	)

	var skipped int
	for i, chunk := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.Document{}, skipped, fmt.Errorf("rate limit wait: %w", err)
		}

		result, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Document{}, skipped, fmt.Errorf("embed chunk: %w", err)
			}
			s.logger.Warn("Failed to embed chunk, skipping it",
				zap.String("file", file),
				zap.Int("chunk", i),
				zap.Error(err),
			)
			skipped++
			continue
		}
		doc.Chunks = append(doc.Chunks, domain.Chunk{Text: chunk, Vector: result.Embedding})
	}

	return doc, skipped, nil
}

// listNewPDFs returns folder's PDF filenames absent from existing, sorted
// for a deterministic processing (and store) order, plus the total scanned.
func listNewPDFs(folder string, existing map[string]struct{}) ([]string, int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, 0, fmt.Errorf("read corpus folder %s: %w", folder, err)
	}

	var newFiles []string
	var scanned int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		scanned++
		if _, ok := existing[entry.Name()]; ok {
			continue
		}
		newFiles = append(newFiles, entry.Name())
	}
	sort.Strings(newFiles)
	return newFiles, scanned, nil
}
