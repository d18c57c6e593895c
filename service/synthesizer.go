package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/models"
)

// AnswerSynthesizer turns a query and a ranked passage list into a
// grounded natural-language answer
type AnswerSynthesizer struct {
	llm          llm.Client
	contextLimit int
	temperature  float64
	citations    bool
}

// NewAnswerSynthesizer creates an answer synthesizer. contextLimit
// bounds how many passages are embedded in the generation prompt.
func NewAnswerSynthesizer(client llm.Client, contextLimit int, temperature float64, citations bool) *AnswerSynthesizer {
	return &AnswerSynthesizer{
		llm:          client,
		contextLimit: contextLimit,
		temperature:  temperature,
		citations:    citations,
	}
}

// Synthesize generates an answer from the first contextLimit passages,
// preserving their order. An empty generation result passes through;
// the critique step is the backstop for low-quality answers.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, passages []models.Passage) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("llm client not set")
	}

	limit := s.contextLimit
	if limit > len(passages) {
		limit = len(passages)
	}
	selected := passages[:limit]

	var contextBlock strings.Builder
	for i, p := range selected {
		contextBlock.WriteString(fmt.Sprintf("[%d] %s\n\n", i+1, p.Text))
	}

	instructions := `Answer the question using primarily the context passages above.
If the context does not contain enough information to answer, say so plainly instead of guessing.`
	if s.citations {
		instructions += `
When a statement is supported by a passage, reference it by its number, e.g. [2].`
	}

	prompt := fmt.Sprintf(`CONTEXT PASSAGES:
%s
QUESTION: %s

%s`, contextBlock.String(), query, instructions)

	out, err := s.llm.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You answer questions from provided document excerpts. Be accurate and concise; never fabricate facts that are not in the context."},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{Temperature: s.temperature})
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}

	return strings.TrimSpace(out), nil
}
