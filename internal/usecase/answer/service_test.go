package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

type stubRetriever struct {
	hits []domain.Hit
	err  error
}

func (s *stubRetriever) Retrieve(context.Context, string, domain.Segment, int) ([]domain.Hit, error) {
	return s.hits, s.err
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestAsk_GroundsPromptInHits(t *testing.T) {
	ret := &stubRetriever{hits: []domain.Hit{
		{Text: "O recesso começa dia 20 de dezembro.", Source: "Recesso.pdf", Score: 0.9},
		{Text: "A festa junina será dia 14.", Source: "Festa.pdf", Score: 0.8},
	}}
	gen := &stubGenerator{reply: "Olá! O recesso começa dia 20 de dezembro. Fonte(s): Recesso.pdf"}

	resp, err := New(ret, gen, 4, zap.NewNop()).Ask(
		context.Background(), "quando começa o recesso?", domain.SegmentAI)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if resp.Answer != gen.reply {
		t.Errorf("Answer = %q, expected generator reply", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("Sources = %v, expected two files", resp.Sources)
	}

	for _, want := range []string{
		"Fonte: Recesso.pdf",
		"O recesso começa dia 20 de dezembro.",
		"quando começa o recesso?",
		"NUNCA invente datas",
	} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAsk_NoHitsShortCircuitsGenerator(t *testing.T) {
	gen := &stubGenerator{reply: "should not be used"}

	resp, err := New(&stubRetriever{}, gen, 4, zap.NewNop()).Ask(
		context.Background(), "pergunta", domain.SegmentEI)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if resp.Answer != NotFoundAnswer {
		t.Errorf("Answer = %q, expected the not-found message", resp.Answer)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, expected none", resp.Sources)
	}
	if gen.prompt != "" {
		t.Error("generator was called without any grounding context")
	}
}

func TestAsk_RetrievalErrorPropagates(t *testing.T) {
	ret := &stubRetriever{err: domain.ErrEmbeddingProviderError}

	_, err := New(ret, &stubGenerator{}, 4, zap.NewNop()).Ask(
		context.Background(), "pergunta", domain.SegmentEM)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestAsk_GenerationFailureDegradesToApology(t *testing.T) {
	ret := &stubRetriever{hits: []domain.Hit{
		{Text: "trecho", Source: "Aviso.pdf", Score: 0.5},
	}}
	gen := &stubGenerator{err: domain.ErrAnswerProviderError}

	resp, err := New(ret, gen, 4, zap.NewNop()).Ask(
		context.Background(), "pergunta", domain.SegmentAF)
	if err != nil {
		t.Fatalf("generation failure must not surface as an error, got %v", err)
	}

	if resp.Answer != apologyAnswer {
		t.Errorf("Answer = %q, expected the apology message", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Aviso.pdf" {
		t.Errorf("Sources = %v, expected the retrieval sources preserved", resp.Sources)
	}
}

func TestAsk_SourcesDeduplicatedAndSorted(t *testing.T) {
	ret := &stubRetriever{hits: []domain.Hit{
		{Text: "a", Source: "zeta.pdf", Score: 0.9},
		{Text: "b", Source: "alpha.pdf", Score: 0.8},
		{Text: "c", Source: "zeta.pdf", Score: 0.7},
	}}
	gen := &stubGenerator{reply: "ok"}

	resp, err := New(ret, gen, 4, zap.NewNop()).Ask(
		context.Background(), "pergunta", domain.SegmentAI)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if len(resp.Sources) != 2 || resp.Sources[0] != "alpha.pdf" || resp.Sources[1] != "zeta.pdf" {
		t.Errorf("Sources = %v, expected [alpha.pdf zeta.pdf]", resp.Sources)
	}
}
