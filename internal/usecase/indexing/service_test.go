package indexing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

type memStore struct {
	base    *domain.KnowledgeBase
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load() (*domain.KnowledgeBase, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.base == nil {
		m.base = &domain.KnowledgeBase{}
	}
	return m.base, nil
}

func (m *memStore) Save(base *domain.KnowledgeBase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.base = base
	m.saves++
	return nil
}

type fakeExtractor struct {
	texts  map[string]string // keyed by base filename
	failOn map[string]bool
	calls  int
}

func (f *fakeExtractor) Extract(path string) (string, error) {
	f.calls++
	name := filepath.Base(path)
	if f.failOn[name] {
		return "", domain.ErrExtractionFailed
	}
	text, ok := f.texts[name]
	if !ok {
		return "", domain.ErrExtractionFailed
	}
	return text, nil
}

type fakeEmbedder struct {
	calls      int
	failSubstr string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.failSubstr != "" && strings.Contains(text, f.failSubstr) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1, 2}}, nil
}

func writeCorpus(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newService(store Store, ext Extractor, emb domain.Embedder) *Service {
	return New(store, ext, emb, time.Microsecond, 10, 2, zap.NewNop())
}

func TestBuild_IndexesNewPDFs(t *testing.T) {
	dir := writeCorpus(t, "Comunicado-AI-Volta.pdf", "Aviso_Geral.pdf", "notas.txt")

	store := &memStore{}
	ext := &fakeExtractor{texts: map[string]string{
		"Comunicado-AI-Volta.pdf": strings.Repeat("a", 25),
		"Aviso_Geral.pdf":         "curto",
	}}
	emb := &fakeEmbedder{}

	report, err := newService(store, ext, emb).Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.ScannedFiles != 2 {
		t.Errorf("ScannedFiles = %d, expected 2 (txt ignored)", report.ScannedFiles)
	}
	if report.NewFiles != 2 || report.IndexedDocuments != 2 {
		t.Errorf("NewFiles/Indexed = %d/%d, expected 2/2", report.NewFiles, report.IndexedDocuments)
	}
	if store.saves != 1 {
		t.Errorf("expected exactly one save, got %d", store.saves)
	}
	if store.base.Len() != 2 {
		t.Fatalf("base has %d documents, expected 2", store.base.Len())
	}

	for _, doc := range store.base.Documents() {
		if doc.File == "Comunicado-AI-Volta.pdf" {
			if len(doc.Segments) != 1 || doc.Segments[0] != domain.SegmentAI {
				t.Errorf("segments = %v, expected [AI]", doc.Segments)
			}
			// 25 chars, window 10, step 8 -> chunks at 0, 8, 16, 24
			if len(doc.Chunks) != 4 {
				t.Errorf("chunks = %d, expected 4", len(doc.Chunks))
			}
		}
	}
}

func TestBuild_IdempotentWhenNothingNew(t *testing.T) {
	dir := writeCorpus(t, "Aviso_Geral.pdf")

	base := &domain.KnowledgeBase{}
	if err := base.Append(domain.Document{
		File:     "Aviso_Geral.pdf",
		Segments: []domain.Segment{domain.SegmentGeneral},
		Chunks:   []domain.Chunk{{Text: "t", Vector: []float32{1}}},
	}); err != nil {
		t.Fatalf("seed base: %v", err)
	}
	store := &memStore{base: base}
	ext := &fakeExtractor{}
	emb := &fakeEmbedder{}

	report, err := newService(store, ext, emb).Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.NewFiles != 0 {
		t.Errorf("NewFiles = %d, expected 0", report.NewFiles)
	}
	if store.saves != 0 {
		t.Errorf("store rewritten on a no-op run (%d saves)", store.saves)
	}
	if ext.calls != 0 || emb.calls != 0 {
		t.Errorf("extractor/embedder called on already indexed file (%d/%d)", ext.calls, emb.calls)
	}
}

func TestBuild_SkipsFailedExtraction(t *testing.T) {
	dir := writeCorpus(t, "bom.pdf", "ruim.pdf")

	store := &memStore{}
	ext := &fakeExtractor{
		texts:  map[string]string{"bom.pdf": "texto"},
		failOn: map[string]bool{"ruim.pdf": true},
	}

	report, err := newService(store, ext, &fakeEmbedder{}).Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.SkippedDocuments != 1 || report.IndexedDocuments != 1 {
		t.Errorf("Skipped/Indexed = %d/%d, expected 1/1",
			report.SkippedDocuments, report.IndexedDocuments)
	}
	if store.base.Contains("ruim.pdf") {
		t.Error("failed document ended up in the base")
	}
	if !store.base.Contains("bom.pdf") {
		t.Error("healthy document missing from the base")
	}
}

func TestBuild_SkipsFailedChunkKeepsDocument(t *testing.T) {
	dir := writeCorpus(t, "doc.pdf")

	store := &memStore{}
	// window 10, step 8: 18 chars -> chunks at 0, 8, 16; the first two
	// carry the failure marker, only the tail chunk survives.
	ext := &fakeExtractor{texts: map[string]string{
		"doc.pdf": "aaaaaaaaXXbbbbbbbb",
	}}
	emb := &fakeEmbedder{failSubstr: "XX"}

	report, err := newService(store, ext, emb).Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.SkippedChunks != 2 {
		t.Errorf("SkippedChunks = %d, expected 2", report.SkippedChunks)
	}
	if report.IndexedDocuments != 1 {
		t.Errorf("IndexedDocuments = %d, expected 1", report.IndexedDocuments)
	}

	docs := store.base.Documents()
	if len(docs) != 1 {
		t.Fatalf("base has %d documents, expected 1", len(docs))
	}
	if len(docs[0].Chunks) != 1 {
		t.Errorf("surviving chunks = %d, expected 1", len(docs[0].Chunks))
	}
}

func TestBuild_LoadErrorAborts(t *testing.T) {
	store := &memStore{loadErr: domain.ErrStoreCorrupt}

	_, err := newService(store, &fakeExtractor{}, &fakeEmbedder{}).Build(context.Background(), t.TempDir())
	if !errors.Is(err, domain.ErrStoreCorrupt) {
		t.Fatalf("expected ErrStoreCorrupt, got %v", err)
	}
}

func TestBuild_MissingFolder(t *testing.T) {
	store := &memStore{}

	_, err := newService(store, &fakeExtractor{}, &fakeEmbedder{}).Build(
		context.Background(), filepath.Join(t.TempDir(), "nao-existe"))
	if err == nil {
		t.Fatal("expected error for missing corpus folder")
	}
	if store.saves != 0 {
		t.Error("store saved despite failed run")
	}
}

func TestBuild_CanceledContext(t *testing.T) {
	dir := writeCorpus(t, "doc.pdf")

	store := &memStore{}
	ext := &fakeExtractor{texts: map[string]string{"doc.pdf": "texto longo o bastante"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(store, ext, &fakeEmbedder{}).Build(ctx, dir)
	if err == nil {
		t.Fatal("expected error on canceled context")
	}
	if store.saves != 0 {
		t.Error("store saved despite interrupted run")
	}
}

func TestBuild_ProgressCallback(t *testing.T) {
	dir := writeCorpus(t, "a.pdf", "b.pdf")

	store := &memStore{}
	ext := &fakeExtractor{texts: map[string]string{"a.pdf": "um", "b.pdf": "dois"}}

	var seen []string
	svc := newService(store, ext, &fakeEmbedder{}).WithProgress(func(file string) {
		seen = append(seen, file)
	})

	if _, err := svc.Build(context.Background(), dir); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(seen) != 2 || seen[0] != "a.pdf" || seen[1] != "b.pdf" {
		t.Errorf("progress callbacks = %v, expected [a.pdf b.pdf]", seen)
	}
}
