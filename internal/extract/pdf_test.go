package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

func TestExtract_MissingFile(t *testing.T) {
	e := New(zap.NewNop())

	_, err := e.Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	e := New(zap.NewNop())

	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := e.Extract(path)
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

// Integration test over a real bulletin; only runs when a fixture is present.
func TestExtract_Fixture(t *testing.T) {
	const fixture = "testdata/comunicado.pdf"
	if _, err := os.Stat(fixture); err != nil {
		t.Skip("no PDF fixture available")
	}

	e := New(zap.NewNop())
	text, err := e.Extract(fixture)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text == "" {
		t.Fatal("expected extracted text")
	}
}
