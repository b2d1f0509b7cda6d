// Package answer turns retrieved bulletin chunks into a grounded natural
// language reply for parents. Retrieval decides what the model may say;
// this package decides how it says it.
package answer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// NotFoundAnswer is returned when no indexed chunk is eligible for the
// question's segment.
const NotFoundAnswer = "Nos comunicados disponíveis, não encontrei uma resposta para a sua pergunta. Tente perguntar de outra forma."

// apologyAnswer is returned verbatim when the generation provider fails;
// the retrieval sources are still reported so parents can read the PDFs
// themselves.
const apologyAnswer = "Desculpe, ocorreu um erro ao contatar a IA. Tente novamente em instantes."

// Retriever finds the best-scoring chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, segment domain.Segment, k int) ([]domain.Hit, error)
}

// Generator produces a completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Response is the assistant's reply plus the bulletin files it drew from.
type Response struct {
	Answer  string       `json:"answer"`
	Sources []string     `json:"sources"`
	Hits    []domain.Hit `json:"hits,omitempty"`
}

// Service assembles the grounding prompt and calls the generator.
type Service struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    *zap.Logger
}

// New creates an answer service. topK bounds how many chunks ground the
// prompt; zero falls back to the retriever's default.
func New(retriever Retriever, generator Generator, topK int, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, topK: topK, logger: logger}
}

// Ask answers a parent's question scoped to a segment. Retrieval failures
// propagate as errors; generation failures degrade to an apology with the
// sources intact, never to a fabricated answer.
func (s *Service) Ask(ctx context.Context, question string, segment domain.Segment) (Response, error) {
	hits, err := s.retriever.Retrieve(ctx, question, segment, s.topK)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}

	if len(hits) == 0 {
		return Response{Answer: NotFoundAnswer}, nil
	}

	sources := uniqueSources(hits)
	prompt := buildPrompt(question, hits, sources)

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("Answer generation failed, replying with apology",
			zap.String("segment", string(segment)),
			zap.Error(err),
		)
		return Response{Answer: apologyAnswer, Sources: sources, Hits: hits}, nil
	}

	return Response{Answer: text, Sources: sources, Hits: hits}, nil
}

// buildPrompt embeds the retrieved chunks and grounding rules around the
// user's question. The reply language follows the corpus (Portuguese).
func buildPrompt(question string, hits []domain.Hit, sources []string) string {
	var ctxParts []string
	for _, h := range hits {
		ctxParts = append(ctxParts, fmt.Sprintf("Fonte: %s\nTrecho Relevante: %s", h.Source, h.Text))
	}

	var b strings.Builder
	b.WriteString("Você é um assistente virtual amigável e prestativo da escola. ")
	b.WriteString("Sua tarefa é responder perguntas dos pais com base nos trechos de comunicados oficiais fornecidos abaixo. ")
	b.WriteString("Use um tom cordial e ajude da melhor forma possível.\n\n")
	b.WriteString("**Contexto dos Trechos Relevantes:**\n")
	b.WriteString(strings.Join(ctxParts, "\n\n"))
	b.WriteString("\n\n**Regras Importantes:**\n")
	b.WriteString("1. Sempre baseie sua resposta principal nas informações do contexto. NUNCA invente datas, valores ou detalhes.\n")
	b.WriteString("2. Formule uma resposta clara e amigável. Você pode começar com uma saudação como \"Olá!\" ou \"Com certeza!\".\n")
	b.WriteString("3. Se a resposta exata não estiver no contexto, diga que não encontrou o detalhe exato e mencione o assunto mais próximo que achou, orientando a família a procurar a secretaria da escola.\n")
	b.WriteString(fmt.Sprintf("4. Ao final da sua resposta, cite o(s) nome(s) do(s) arquivo(s) fonte, assim: \"Fonte(s): %s\".\n", strings.Join(sources, ", ")))
	b.WriteString("\n**Pergunta do Usuário:**\n")
	b.WriteString(question)
	return b.String()
}

// uniqueSources returns the distinct source filenames, sorted so the same
// hits always cite the same way.
func uniqueSources(hits []domain.Hit) []string {
	seen := make(map[string]struct{}, len(hits))
	var sources []string
	for _, h := range hits {
		if _, ok := seen[h.Source]; ok {
			continue
		}
		seen[h.Source] = struct{}{}
		sources = append(sources, h.Source)
	}
	sort.Strings(sources)
	return sources
}
