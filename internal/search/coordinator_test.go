package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

type mockProvider struct {
	embedErr   error
	embedCalls int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	return "", fmt.Errorf("not used")
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

type mockCorpus struct {
	vectorDocs   []model.RankedDoc
	vectorErr    error
	keywordDocs  []model.RankedDoc
	keywordErr   error
	vectorCalls  int
	keywordCalls int
	lastQuery    string
}

func (m *mockCorpus) GetDocument(ctx context.Context, id string) (model.Document, error) {
	return model.Document{}, fmt.Errorf("not used")
}

func (m *mockCorpus) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]model.RankedDoc, error) {
	m.vectorCalls++
	return m.vectorDocs, m.vectorErr
}

func (m *mockCorpus) KeywordSearch(ctx context.Context, query string, limit int) ([]model.RankedDoc, error) {
	m.keywordCalls++
	m.lastQuery = query
	return m.keywordDocs, m.keywordErr
}

func testCounterStatement() model.CounterStatement {
	return model.CounterStatement{
		Statement:     model.Statement{Text: "aspirin reduces mortality", Order: 1},
		NegatedText:   "aspirin does not reduce mortality",
		HydeAbstracts: []string{"hypothetical one", "hypothetical two"},
		Keywords:      []string{"aspirin", "mortality"},
	}
}

func TestCoordinator_Search_AllStrategies(t *testing.T) {
	provider := &mockProvider{}
	corpusStore := &mockCorpus{
		vectorDocs:  []model.RankedDoc{{DocID: "d1", Score: 0.9}, {DocID: "d2", Score: 0.8}},
		keywordDocs: []model.RankedDoc{{DocID: "d2", Score: 1.5}, {DocID: "d3", Score: 1.0}},
	}

	c := NewCoordinator(corpusStore, provider, model.SearchConfig{MaxPerStrategy: 10, FusionK: 60})
	results, err := c.Search(context.Background(), testCounterStatement())
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	// Semantic once plus one per hyde abstract
	if provider.embedCalls != 3 {
		t.Errorf("Expected 3 embed calls, got %d", provider.embedCalls)
	}
	if corpusStore.vectorCalls != 3 {
		t.Errorf("Expected 3 vector searches, got %d", corpusStore.vectorCalls)
	}
	if corpusStore.keywordCalls != 1 {
		t.Errorf("Expected 1 keyword search, got %d", corpusStore.keywordCalls)
	}
	if corpusStore.lastQuery != "aspirin mortality" {
		t.Errorf("Expected space-joined keyword query, got %q", corpusStore.lastQuery)
	}

	if len(results.Fused) != 3 {
		t.Errorf("Expected 3 unique fused docs, got %d: %v", len(results.Fused), results.Fused)
	}

	// Every fused doc has provenance
	for _, id := range results.Fused {
		if len(results.Provenance[id]) == 0 {
			t.Errorf("Document %s has no provenance", id)
		}
	}

	// d2 came from both vector and keyword search
	if len(results.Provenance["d2"]) < 2 {
		t.Errorf("Expected d2 found by multiple strategies, got %v", results.Provenance["d2"])
	}

	if results.Meta.QueriesRun != 4 {
		t.Errorf("Expected 4 queries run, got %d", results.Meta.QueriesRun)
	}
	if results.Meta.StrategyErrors != nil {
		t.Errorf("Expected no strategy errors, got %v", results.Meta.StrategyErrors)
	}
}

func TestCoordinator_Search_EmbedFailureDegrades(t *testing.T) {
	provider := &mockProvider{embedErr: fmt.Errorf("endpoint down")}
	corpusStore := &mockCorpus{
		keywordDocs: []model.RankedDoc{{DocID: "k1"}},
	}

	c := NewCoordinator(corpusStore, provider, model.SearchConfig{})
	results, err := c.Search(context.Background(), testCounterStatement())
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	// Vector strategies degraded, keyword still ran
	if len(results.Fused) != 1 || results.Fused[0] != "k1" {
		t.Errorf("Expected keyword-only results [k1], got %v", results.Fused)
	}
	if results.Meta.StrategyErrors[model.StrategySemantic] == "" {
		t.Error("Expected semantic strategy error recorded")
	}
	if results.Meta.StrategyErrors[model.StrategyHyde] == "" {
		t.Error("Expected hyde strategy error recorded")
	}
}

func TestCoordinator_Search_AllEmpty(t *testing.T) {
	provider := &mockProvider{}
	corpusStore := &mockCorpus{}

	c := NewCoordinator(corpusStore, provider, model.SearchConfig{})
	results, err := c.Search(context.Background(), testCounterStatement())
	if err != nil {
		t.Fatalf("Empty result set must not be an error, got: %v", err)
	}

	if len(results.Fused) != 0 {
		t.Errorf("Expected no fused docs, got %v", results.Fused)
	}
}

func TestCoordinator_Search_ShortCircuit(t *testing.T) {
	provider := &mockProvider{}
	corpusStore := &mockCorpus{
		vectorDocs: []model.RankedDoc{{DocID: "d1"}},
	}

	c := NewCoordinator(corpusStore, provider, model.SearchConfig{StopOnFirstHit: true})
	results, err := c.Search(context.Background(), testCounterStatement())
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if !results.Meta.ShortCircuited {
		t.Error("Expected short circuit to be recorded")
	}
	// Only the semantic embed ran
	if provider.embedCalls != 1 {
		t.Errorf("Expected 1 embed call after short circuit, got %d", provider.embedCalls)
	}
	if corpusStore.keywordCalls != 0 {
		t.Errorf("Expected no keyword search after short circuit, got %d", corpusStore.keywordCalls)
	}
}

func TestCoordinator_Search_NoKeywords(t *testing.T) {
	provider := &mockProvider{}
	corpusStore := &mockCorpus{}

	cs := testCounterStatement()
	cs.Keywords = nil
	cs.HydeAbstracts = nil

	c := NewCoordinator(corpusStore, provider, model.SearchConfig{})
	results, err := c.Search(context.Background(), cs)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if corpusStore.keywordCalls != 0 {
		t.Error("Expected keyword search skipped with no keywords")
	}
	if results.Meta.QueriesRun != 1 {
		t.Errorf("Expected only the semantic query, got %d", results.Meta.QueriesRun)
	}
}
