package service

import (
	"context"
	"errors"
	"testing"

	"github.com/F0xhopper/Cogno-MVP/models"
)

type pipelineFakes struct {
	expander    *fakeLLM
	synthesizer *fakeLLM
	critic      *fakeLLM
}

func newTestPipeline(fakes pipelineFakes, extra ...RAGServiceOption) *RAGService {
	opts := []RAGServiceOption{
		WithQueryExpander(NewQueryExpander(fakes.expander, true, 3, 0.7)),
		WithRelevanceRanker(NewRelevanceRanker(true)),
		WithAnswerSynthesizer(NewAnswerSynthesizer(fakes.synthesizer, 5, 0.3, true)),
	}
	if fakes.critic != nil {
		opts = append(opts, WithCritiqueEvaluator(NewCritiqueEvaluator(fakes.critic), 0.7, 2))
	}
	opts = append(opts, extra...)
	return NewRAGService(opts...)
}

func threePassages() []models.Passage {
	return []models.Passage{
		{Text: "Prime matter is pure potentiality.", Source: "aristotle.pdf", ChunkIndex: 0},
		{Text: "Form actualizes matter.", Source: "aristotle.pdf", ChunkIndex: 1},
		{Text: "Substance is the composite of both.", Source: "aristotle.pdf", ChunkIndex: 2},
	}
}

func TestAnswer_EmptyRetrievalShortCircuits(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1\nv2"}},
		synthesizer: &fakeLLM{responses: []string{"answer"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.9, "details": {}}`}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "what is prime matter?", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != InsufficientInformationAnswer {
		t.Errorf("expected insufficient-information answer, got %q", result.Answer)
	}
	if result.CritiqueScore != 0 || result.Confidence != 0 {
		t.Errorf("expected zero scores, got critique=%v confidence=%v", result.CritiqueScore, result.Confidence)
	}
	if len(result.ExpandedQueries) != 1 || result.ExpandedQueries[0] != "what is prime matter?" {
		t.Errorf("expected only the original query, got %v", result.ExpandedQueries)
	}
	total := fakes.expander.calls + fakes.synthesizer.calls + fakes.critic.calls
	if total != 0 {
		t.Errorf("expected zero generation calls, got %d", total)
	}
}

func TestAnswer_WhitespaceOnlyPassagesCountAsEmpty(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{},
		synthesizer: &fakeLLM{},
		critic:      &fakeLLM{},
	}
	svc := newTestPipeline(fakes)

	passages := []models.Passage{{Text: "   "}, {Text: "\n\t"}}
	result, err := svc.Answer(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != InsufficientInformationAnswer {
		t.Errorf("expected insufficient-information answer, got %q", result.Answer)
	}
	if fakes.synthesizer.calls != 0 {
		t.Errorf("expected no synthesis calls, got %d", fakes.synthesizer.calls)
	}
}

func TestAnswer_HighScoreSkipsImprovement(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"a good answer [1]"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.9, "details": {"feedback": "good"}}`}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "what is prime matter?", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != "a good answer [1]" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if result.CritiqueScore != 0.9 || result.Confidence != 0.9 {
		t.Errorf("expected critique=0.9 confidence=0.9, got %v / %v", result.CritiqueScore, result.Confidence)
	}
	if fakes.synthesizer.calls != 1 {
		t.Errorf("expected 1 synthesis call, got %d", fakes.synthesizer.calls)
	}
	if fakes.critic.calls != 1 {
		t.Errorf("expected 1 critique call, got %d", fakes.critic.calls)
	}
}

func TestAnswer_ImprovementAttemptsAreBounded(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"attempt"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.5, "details": {}}`}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "q", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One initial synthesis plus exactly two improvement attempts.
	if fakes.synthesizer.calls != 3 {
		t.Errorf("expected 3 synthesis calls, got %d", fakes.synthesizer.calls)
	}
	if fakes.critic.calls != 3 {
		t.Errorf("expected 3 critique calls, got %d", fakes.critic.calls)
	}
	if result.Confidence != 0.5 {
		t.Errorf("expected confidence 0.5, got %v", result.Confidence)
	}
}

func TestAnswer_AdoptsStrictlyBetterCandidate(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"first answer", "better answer"}},
		critic: &fakeLLM{responses: []string{
			`{"score": 0.4, "details": {"feedback": "thin"}}`,
			`{"score": 0.8, "details": {"feedback": "solid"}}`,
		}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "q", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != "better answer" {
		t.Errorf("expected improved answer adopted, got %q", result.Answer)
	}
	// The reported critique score stays with the first synthesis; the
	// confidence reflects the best attempt.
	if result.CritiqueScore != 0.4 {
		t.Errorf("expected critique score 0.4, got %v", result.CritiqueScore)
	}
	if result.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", result.Confidence)
	}
	if result.CritiqueDetails["feedback"] != "thin" {
		t.Errorf("expected initial critique details retained, got %v", result.CritiqueDetails)
	}
	// 0.8 cleared the threshold, so only one improvement attempt ran.
	if fakes.synthesizer.calls != 2 {
		t.Errorf("expected 2 synthesis calls, got %d", fakes.synthesizer.calls)
	}
}

func TestAnswer_KeepsInitialWhenCandidatesAreWorse(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"initial answer", "worse one", "worse two"}},
		critic: &fakeLLM{responses: []string{
			`{"score": 0.6, "details": {}}`,
			`{"score": 0.3, "details": {}}`,
			`{"score": 0.2, "details": {}}`,
		}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "q", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Answer != "initial answer" {
		t.Errorf("expected initial answer kept, got %q", result.Answer)
	}
	if result.Confidence != 0.6 {
		t.Errorf("confidence must never drop below the initial score, got %v", result.Confidence)
	}
}

func TestAnswer_CritiqueDisabledReportsFullConfidence(t *testing.T) {
	critic := &fakeLLM{responses: []string{`{"score": 0.1, "details": {}}`}}
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"the answer"}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "q", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CritiqueScore != 1.0 || result.Confidence != 1.0 {
		t.Errorf("expected full confidence without critique, got %v / %v", result.CritiqueScore, result.Confidence)
	}
	if critic.calls != 0 {
		t.Errorf("critic should never be invoked, got %d calls", critic.calls)
	}
}

func TestAnswer_ExpansionFailureFailsRequest(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{err: errors.New("quota exceeded")},
		synthesizer: &fakeLLM{responses: []string{"answer"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.9, "details": {}}`}},
	}
	svc := newTestPipeline(fakes)

	if _, err := svc.Answer(context.Background(), "q", threePassages(), 5); err == nil {
		t.Fatal("expected expansion failure to propagate")
	}
	if fakes.synthesizer.calls != 0 {
		t.Errorf("expected no synthesis after failed expansion, got %d calls", fakes.synthesizer.calls)
	}
}

func TestAnswer_CritiqueFailureDoesNotFailRequest(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"the answer"}},
		critic:      &fakeLLM{err: errors.New("critique model down")},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "q", threePassages(), 5)
	if err != nil {
		t.Fatalf("critique failure must not fail the request: %v", err)
	}
	if result.CritiqueScore != 0.5 {
		t.Errorf("expected neutral fallback score 0.5, got %v", result.CritiqueScore)
	}
	if result.Answer != "the answer" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
}

func TestAnswer_RankedPassagesCarrySyntheticScores(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"answer"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.9, "details": {}}`}},
	}
	svc := newTestPipeline(fakes)

	result, err := svc.Answer(context.Background(), "what is prime matter?", threePassages(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{1.0, 0.9, 0.8}
	if len(result.Reranked) != 3 {
		t.Fatalf("expected 3 reranked passages, got %d", len(result.Reranked))
	}
	for i, p := range result.Reranked {
		if !approxEqual(p.RelevanceScore, want[i]) {
			t.Errorf("reranked[%d]: expected score %.1f, got %v", i, want[i], p.RelevanceScore)
		}
	}
}

func TestAnswer_CacheAvoidsRepeatGeneration(t *testing.T) {
	fakes := pipelineFakes{
		expander:    &fakeLLM{responses: []string{"v1"}},
		synthesizer: &fakeLLM{responses: []string{"cached answer"}},
		critic:      &fakeLLM{responses: []string{`{"score": 0.9, "details": {}}`}},
	}
	svc := newTestPipeline(fakes, WithAnswerCache())

	passages := threePassages()
	first, err := svc.Answer(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Answer(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Answer != second.Answer {
		t.Errorf("cache returned a different answer: %q vs %q", first.Answer, second.Answer)
	}
	if fakes.synthesizer.calls != 1 {
		t.Errorf("expected cache hit to skip synthesis, got %d calls", fakes.synthesizer.calls)
	}
	if fakes.expander.calls != 1 {
		t.Errorf("expected cache hit to skip expansion, got %d calls", fakes.expander.calls)
	}

	// A different passage set misses the cache.
	other := []models.Passage{{Text: "different passage"}}
	if _, err := svc.Answer(context.Background(), "q", other, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fakes.synthesizer.calls != 2 {
		t.Errorf("expected a cache miss for new passages, got %d synthesis calls", fakes.synthesizer.calls)
	}
}

func TestAnswer_MissingComponentsRejected(t *testing.T) {
	svc := NewRAGService()
	if _, err := svc.Answer(context.Background(), "q", threePassages(), 5); !errors.Is(err, ErrExpanderNotSet) {
		t.Fatalf("expected ErrExpanderNotSet, got %v", err)
	}

	svc = NewRAGService(WithQueryExpander(NewQueryExpander(&fakeLLM{}, false, 0, 0)))
	if _, err := svc.Answer(context.Background(), "q", threePassages(), 5); !errors.Is(err, ErrRankerNotSet) {
		t.Fatalf("expected ErrRankerNotSet, got %v", err)
	}

	svc = NewRAGService(
		WithQueryExpander(NewQueryExpander(&fakeLLM{}, false, 0, 0)),
		WithRelevanceRanker(NewRelevanceRanker(true)),
	)
	if _, err := svc.Answer(context.Background(), "q", threePassages(), 5); !errors.Is(err, ErrSynthesizerNotSet) {
		t.Fatalf("expected ErrSynthesizerNotSet, got %v", err)
	}
}
