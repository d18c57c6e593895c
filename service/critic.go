package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/models"
)

const critiqueFallbackScore = 0.5

// CritiqueEvaluator scores a (query, answer, context) triple along
// several quality dimensions. It never fails: when generation errors or
// the response is not valid JSON, it returns a neutral fallback so the
// improvement loop always has a usable score.
type CritiqueEvaluator struct {
	llm llm.Client
}

// NewCritiqueEvaluator creates a critique evaluator
func NewCritiqueEvaluator(client llm.Client) *CritiqueEvaluator {
	return &CritiqueEvaluator{llm: client}
}

// Critique evaluates an answer against its query and the context it was
// synthesized from
func (c *CritiqueEvaluator) Critique(ctx context.Context, query, answer, contextText string) models.CritiqueResult {
	if c.llm == nil {
		return fallbackCritique()
	}

	prompt := fmt.Sprintf(`Evaluate the answer below against the question and the context it was based on.

QUESTION: %s

ANSWER: %s

CONTEXT:
%s

Respond with a JSON object of exactly this shape:
{
  "score": <overall quality, 0.0 to 1.0>,
  "details": {
    "relevance": <0.0 to 1.0>,
    "accuracy": <0.0 to 1.0>,
    "completeness": <0.0 to 1.0>,
    "clarity": <0.0 to 1.0>,
    "feedback": "<one or two sentences of concrete feedback>"
  }
}`, query, answer, contextText)

	out, err := c.llm.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a strict evaluator of question answering quality. Respond only with the requested JSON object."},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{Temperature: 0.0, JSONResponse: true})
	if err != nil {
		return fallbackCritique()
	}

	var parsed struct {
		Score   float64                `json:"score"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &parsed); err != nil {
		return fallbackCritique()
	}

	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 1 {
		parsed.Score = 1
	}
	if parsed.Details == nil {
		parsed.Details = map[string]interface{}{}
	}

	return models.CritiqueResult{
		Score:   parsed.Score,
		Details: parsed.Details,
	}
}

func fallbackCritique() models.CritiqueResult {
	return models.CritiqueResult{
		Score: critiqueFallbackScore,
		Details: map[string]interface{}{
			"error": "Failed to parse critique",
		},
	}
}
