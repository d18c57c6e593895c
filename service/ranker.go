package service

import (
	"github.com/F0xhopper/Cogno-MVP/models"
)

// RelevanceRanker attaches relevance scores to retrieved passages.
//
// Scores are positional, not semantic: the vector search upstream has
// already ordered passages best-first, so this component annotates that
// order with a strictly decreasing synthetic score sequence
// (1.0, 0.9, 0.8, ... floored at zero). Any downstream score cutoff is
// therefore a rank-position cutoff. Callers must not assume the output
// is truncated to topN; all passages come back, scored.
type RelevanceRanker struct {
	enabled bool
}

// NewRelevanceRanker creates a relevance ranker. When disabled it
// behaves identically except that the input order is trusted as-is
// rather than as the upstream reranker's order.
func NewRelevanceRanker(enabled bool) *RelevanceRanker {
	return &RelevanceRanker{enabled: enabled}
}

// Rank returns the passages in their given order with synthetic
// positional scores attached
func (r *RelevanceRanker) Rank(query string, passages []models.Passage, topN int) []models.Passage {
	ranked := make([]models.Passage, len(passages))
	copy(ranked, passages)

	for i := range ranked {
		score := 1.0 - float64(i)*0.1
		if score < 0 {
			score = 0
		}
		ranked[i].RelevanceScore = score
	}

	return ranked
}
