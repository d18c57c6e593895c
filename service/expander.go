package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/F0xhopper/Cogno-MVP/llm"
)

// QueryExpander produces paraphrased variants of a user query to widen
// retrieval recall. The original query is always element 0 of the
// result, byte-for-byte.
type QueryExpander struct {
	llm         llm.Client
	enabled     bool
	count       int
	temperature float64
}

// NewQueryExpander creates a query expander
func NewQueryExpander(client llm.Client, enabled bool, count int, temperature float64) *QueryExpander {
	return &QueryExpander{
		llm:         client,
		enabled:     enabled,
		count:       count,
		temperature: temperature,
	}
}

// Expand returns the original query followed by up to count generated
// reformulations. A disabled expander returns just the original query;
// a generation failure propagates to the caller.
func (e *QueryExpander) Expand(ctx context.Context, query string) ([]string, error) {
	queries := []string{query}

	if !e.enabled || e.count <= 0 {
		return queries, nil
	}
	if e.llm == nil {
		return nil, fmt.Errorf("llm client not set")
	}

	prompt := fmt.Sprintf(`Generate %d diverse reformulations of the following question.
Each reformulation should use different wording or emphasize a different aspect while preserving the original intent.
Return one reformulation per line, with no numbering and no commentary.

Question: %s`, e.count, query)

	out, err := e.llm.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You rephrase search queries. Output only the rephrased queries, one per line."},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{Temperature: e.temperature})
	if err != nil {
		return nil, fmt.Errorf("query expansion failed: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == e.count+1 {
			break
		}
	}

	return queries, nil
}
