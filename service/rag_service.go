package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/F0xhopper/Cogno-MVP/models"
)

// InsufficientInformationAnswer is returned when retrieval produced no
// usable passages. It is a successful outcome, not an error.
const InsufficientInformationAnswer = "I could not find enough information in the indexed documents to answer this question."

// highConfidenceCutoff filters the ranked passages during improvement
// attempts. Because relevance scores are positional (see RelevanceRanker),
// this effectively keeps the top three ranked passages.
const highConfidenceCutoff = 0.7

var (
	ErrExpanderNotSet    = errors.New("query expander not set")
	ErrRankerNotSet      = errors.New("relevance ranker not set")
	ErrSynthesizerNotSet = errors.New("answer synthesizer not set")
)

// RAGService coordinates query expansion, ranking, answer synthesis and
// the critique-driven improvement loop for one request at a time. It
// holds no per-request state; concurrent calls are independent.
type RAGService struct {
	expander    *QueryExpander
	ranker      *RelevanceRanker
	synthesizer *AnswerSynthesizer
	critic      *CritiqueEvaluator

	critiqueEnabled        bool
	critiqueThreshold      float64
	maxImprovementAttempts int

	cache *answerCache
}

// RAGServiceOption is a functional option for RAGService
type RAGServiceOption func(*RAGService)

// WithQueryExpander sets the query expander
func WithQueryExpander(e *QueryExpander) RAGServiceOption {
	return func(s *RAGService) {
		s.expander = e
	}
}

// WithRelevanceRanker sets the relevance ranker
func WithRelevanceRanker(r *RelevanceRanker) RAGServiceOption {
	return func(s *RAGService) {
		s.ranker = r
	}
}

// WithAnswerSynthesizer sets the answer synthesizer
func WithAnswerSynthesizer(a *AnswerSynthesizer) RAGServiceOption {
	return func(s *RAGService) {
		s.synthesizer = a
	}
}

// WithCritiqueEvaluator sets the critique evaluator and enables the
// improvement loop
func WithCritiqueEvaluator(c *CritiqueEvaluator, threshold float64, maxAttempts int) RAGServiceOption {
	return func(s *RAGService) {
		s.critic = c
		s.critiqueEnabled = c != nil
		s.critiqueThreshold = threshold
		s.maxImprovementAttempts = maxAttempts
	}
}

// WithAnswerCache enables the in-memory answer cache keyed by query and
// passage set
func WithAnswerCache() RAGServiceOption {
	return func(s *RAGService) {
		s.cache = newAnswerCache()
	}
}

// NewRAGService creates a new RAG pipeline service
func NewRAGService(opts ...RAGServiceOption) *RAGService {
	s := &RAGService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the full pipeline for one query over pre-fetched candidate
// passages: expand, rank, synthesize, critique, and retry synthesis
// against a high-confidence subset while the score stays below the
// threshold, up to the configured attempt bound.
//
// Generation failures in expansion or synthesis fail the whole request.
// Critique failures never do; an unscoreable answer counts as uncertain,
// not broken. The returned CritiqueScore belongs to the first synthesis;
// Confidence is the best score achieved across all attempts.
func (s *RAGService) Answer(ctx context.Context, query string, passages []models.Passage, topK int) (*models.RAGResult, error) {
	if s.expander == nil {
		return nil, ErrExpanderNotSet
	}
	if s.ranker == nil {
		return nil, ErrRankerNotSet
	}
	if s.synthesizer == nil {
		return nil, ErrSynthesizerNotSet
	}

	key := ""
	if s.cache != nil {
		key = cacheKey(query, passages)
		if cached, ok := s.cache.get(key); ok {
			return cached, nil
		}
	}

	// No usable passages: terminal result before any generation call.
	usable := make([]models.Passage, 0, len(passages))
	for _, p := range passages {
		if strings.TrimSpace(p.Text) != "" {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		result := &models.RAGResult{
			Query:           query,
			ExpandedQueries: []string{query},
			Passages:        passages,
			Answer:          InsufficientInformationAnswer,
			CritiqueScore:   0.0,
			Confidence:      0.0,
		}
		s.store(key, result)
		return result, nil
	}

	// Expanded queries are carried through for observability only; the
	// candidate passages were already retrieved upstream.
	expanded, err := s.expander.Expand(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked := s.ranker.Rank(query, usable, topK)

	answer, err := s.synthesizer.Synthesize(ctx, query, ranked)
	if err != nil {
		return nil, err
	}

	result := &models.RAGResult{
		Query:           query,
		ExpandedQueries: expanded,
		Passages:        passages,
		Reranked:        ranked,
		Answer:          answer,
	}

	if !s.critiqueEnabled || s.critic == nil {
		// Answer accepted as-is when critique is switched off.
		result.CritiqueScore = 1.0
		result.Confidence = 1.0
		s.store(key, result)
		return result, nil
	}

	initial := s.critic.Critique(ctx, query, answer, joinPassageTexts(ranked))
	bestAnswer := answer
	bestScore := initial.Score

	if initial.Score < s.critiqueThreshold {
		filtered := make([]models.Passage, 0, len(ranked))
		for _, p := range ranked {
			if p.RelevanceScore > highConfidenceCutoff {
				filtered = append(filtered, p)
			}
		}

		for attempt := 0; attempt < s.maxImprovementAttempts && bestScore < s.critiqueThreshold; attempt++ {
			if len(filtered) == 0 {
				break
			}

			candidate, err := s.synthesizer.Synthesize(ctx, query, filtered)
			if err != nil {
				return nil, err
			}

			critique := s.critic.Critique(ctx, query, candidate, joinPassageTexts(filtered))
			if critique.Score > bestScore {
				bestAnswer = candidate
				bestScore = critique.Score
			}
		}
	}

	result.Answer = bestAnswer
	result.CritiqueScore = initial.Score
	result.Confidence = bestScore
	result.CritiqueDetails = initial.Details

	s.store(key, result)
	return result, nil
}

func (s *RAGService) store(key string, result *models.RAGResult) {
	if s.cache != nil && key != "" {
		s.cache.put(key, result)
	}
}

func joinPassageTexts(passages []models.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

// answerCache is a process-local result cache keyed by the fingerprint
// of a query and its candidate passage set. Results are treated as
// immutable once stored.
type answerCache struct {
	mu      sync.RWMutex
	entries map[string]*models.RAGResult
}

func newAnswerCache() *answerCache {
	return &answerCache{entries: make(map[string]*models.RAGResult)}
}

func (c *answerCache) get(key string) (*models.RAGResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[key]
	return result, ok
}

func (c *answerCache) put(key string, result *models.RAGResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
}

func cacheKey(query string, passages []models.Passage) string {
	h := sha256.New()
	h.Write([]byte(query))
	for _, p := range passages {
		h.Write([]byte{0})
		h.Write([]byte(p.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
