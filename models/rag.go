package models

// Passage is a retrieved piece of text consumed by the answer pipeline.
// RelevanceScore is assigned during ranking; Source and ChunkIndex carry
// optional provenance metadata from retrieval.
type Passage struct {
	Text           string  `json:"text"`
	RelevanceScore float64 `json:"relevance_score"`
	Source         string  `json:"source,omitempty"`
	ChunkIndex     int     `json:"chunk_index,omitempty"`
}

// CritiqueResult holds the quality evaluation of an answer. Score is
// nominally in [0,1]; Details is an open mapping of dimension name to
// value (relevance, accuracy, completeness, clarity, feedback, ...).
type CritiqueResult struct {
	Score   float64                `json:"score"`
	Details map[string]interface{} `json:"details"`
}

// RAGResult is the terminal artifact of one answer pipeline invocation.
// CritiqueScore reports the quality of the first synthesized answer;
// Confidence reports the best critique score achieved across the initial
// attempt and all improvement attempts. The two intentionally differ.
type RAGResult struct {
	Query           string                 `json:"query"`
	ExpandedQueries []string               `json:"expanded_queries"`
	Passages        []Passage              `json:"passages"`
	Reranked        []Passage              `json:"reranked"`
	Answer          string                 `json:"answer"`
	CritiqueScore   float64                `json:"critique_score"`
	Confidence      float64                `json:"confidence"`
	CritiqueDetails map[string]interface{} `json:"critique_details,omitempty"`
}
