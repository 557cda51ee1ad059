package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refutelab/refute/internal/corpus"
	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
	"github.com/refutelab/refute/internal/store"
)

// scriptedProvider routes calls by stage, recognizable from prompt text
type scriptedProvider struct {
	extractResponse string
	negateErr       error
	verdictCalls    int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	prompt := req.Prompt
	switch {
	case strings.Contains(prompt, "Extract up to"):
		return p.extractResponse, nil
	case strings.Contains(prompt, "contrary claim"):
		if p.negateErr != nil {
			return "", p.negateErr
		}
		return `{"counter_statement": "Aspirin does not reduce mortality."}`, nil
	case strings.Contains(prompt, "search terms"):
		return `["aspirin", "mortality"]`, nil
	case strings.Contains(prompt, "plausible abstract"):
		return "A hypothetical abstract supporting the contrary claim.", nil
	case strings.Contains(prompt, "Rate how relevant"):
		return `{"score": 5, "explanation": "directly contrary"}`, nil
	case strings.Contains(prompt, "single passage"):
		return `{"passage": "no effect on mortality was observed", "explanation": "contrary finding"}`, nil
	case strings.Contains(prompt, "Summarize the counter-evidence"):
		return "The cited trial reports no mortality benefit.", nil
	case strings.Contains(prompt, "classify"):
		p.verdictCalls++
		return `{"verdict": "contradicts", "rationale": "The trial found no effect.", "confidence": "high"}`, nil
	case strings.Contains(prompt, "overall assessment"):
		return "The abstract's main claim is contradicted by the corpus.", nil
	default:
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}
}

func (p *scriptedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

type fixtureCorpus struct {
	docs    map[string]model.Document
	vector  []model.RankedDoc
	keyword []model.RankedDoc
}

func (f *fixtureCorpus) GetDocument(ctx context.Context, id string) (model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return model.Document{}, corpus.ErrNotFound
	}
	return doc, nil
}

func (f *fixtureCorpus) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]model.RankedDoc, error) {
	return f.vector, nil
}

func (f *fixtureCorpus) KeywordSearch(ctx context.Context, query string, limit int) ([]model.RankedDoc, error) {
	return f.keyword, nil
}

func oneStatementResponse() string {
	return `[{"text": "Aspirin reduces mortality.", "context": "We found aspirin reduces mortality.", "type": "finding", "confidence": 0.9}]`
}

func populatedCorpus() *fixtureCorpus {
	return &fixtureCorpus{
		docs: map[string]model.Document{
			"d1": {ID: "d1", Title: "Aspirin trial", Abstract: "no effect on mortality was observed",
				Authors: []string{"Smith J"}, Year: 2020},
		},
		vector:  []model.RankedDoc{{DocID: "d1", Score: 0.95}},
		keyword: []model.RankedDoc{{DocID: "d1", Score: 1.1}},
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Hyde.NumDocs = 1
	return cfg
}

func TestPipeline_CheckAbstract_EndToEnd(t *testing.T) {
	provider := &scriptedProvider{extractResponse: oneStatementResponse()}
	p := NewPipeline(testConfig(), provider, populatedCorpus(), nil)

	var steps []string
	p.OnProgress(func(step string, fraction float64) {
		steps = append(steps, step)
		if fraction < 0 || fraction > 1 {
			t.Errorf("Progress fraction %v out of range at %q", fraction, step)
		}
	})

	result, err := p.CheckAbstract(context.Background(), "We found aspirin reduces mortality.", model.SourceMeta{Identifier: "PMID:1"})
	if err != nil {
		t.Fatalf("CheckAbstract returned error: %v", err)
	}

	// All per-statement lists aligned
	if len(result.Statements) != 1 || len(result.CounterStatements) != 1 ||
		len(result.SearchResults) != 1 || len(result.ScoredDocuments) != 1 ||
		len(result.CounterReports) != 1 || len(result.Verdicts) != 1 {
		t.Fatalf("Expected aligned single-entry lists, got %d/%d/%d/%d/%d/%d",
			len(result.Statements), len(result.CounterStatements), len(result.SearchResults),
			len(result.ScoredDocuments), len(result.CounterReports), len(result.Verdicts))
	}

	if result.Verdicts[0].Value != model.VerdictContradicts {
		t.Errorf("Expected contradicts, got %s", result.Verdicts[0].Value)
	}
	if result.CounterReports[0].NumCitations != 1 {
		t.Errorf("Expected 1 citation, got %d", result.CounterReports[0].NumCitations)
	}
	if result.OverallAssessment == "" {
		t.Error("Expected overall assessment")
	}
	if result.Processing.FinishedAt.Before(result.Processing.StartedAt) {
		t.Error("Expected finished timestamp after start")
	}
	if len(steps) == 0 {
		t.Error("Expected progress callbacks")
	}
}

func TestPipeline_CheckAbstract_EmptyAbstract(t *testing.T) {
	p := NewPipeline(testConfig(), &scriptedProvider{}, populatedCorpus(), nil)

	if _, err := p.CheckAbstract(context.Background(), "   \n ", model.SourceMeta{}); !errors.Is(err, ErrEmptyAbstract) {
		t.Errorf("Expected ErrEmptyAbstract, got %v", err)
	}
}

func TestPipeline_CheckAbstract_NoStatements(t *testing.T) {
	provider := &scriptedProvider{extractResponse: `[]`}
	cfg := testConfig()
	cfg.Extraction.RequireStatements = true

	p := NewPipeline(cfg, provider, populatedCorpus(), nil)
	if _, err := p.CheckAbstract(context.Background(), "background text only", model.SourceMeta{}); !errors.Is(err, ErrNoStatements) {
		t.Errorf("Expected ErrNoStatements, got %v", err)
	}
}

func TestPipeline_CheckAbstract_NoStatementsAllowed(t *testing.T) {
	provider := &scriptedProvider{extractResponse: `[]`}
	cfg := testConfig()
	cfg.Extraction.RequireStatements = false

	p := NewPipeline(cfg, provider, populatedCorpus(), nil)
	result, err := p.CheckAbstract(context.Background(), "background text only", model.SourceMeta{})
	if err != nil {
		t.Fatalf("Expected success with statements optional, got: %v", err)
	}
	if len(result.Statements) != 0 {
		t.Errorf("Expected no statements, got %d", len(result.Statements))
	}
	if result.OverallAssessment == "" {
		t.Error("Expected explanatory assessment")
	}
}

func TestPipeline_CheckAbstract_NoEvidence(t *testing.T) {
	provider := &scriptedProvider{extractResponse: oneStatementResponse()}
	emptyCorpus := &fixtureCorpus{docs: map[string]model.Document{}}

	p := NewPipeline(testConfig(), provider, emptyCorpus, nil)
	result, err := p.CheckAbstract(context.Background(), "We found aspirin reduces mortality.", model.SourceMeta{})
	if err != nil {
		t.Fatalf("Empty corpus must not fail the run: %v", err)
	}

	v := result.Verdicts[0]
	if v.Value != model.VerdictUndecided || v.Confidence != model.ConfidenceLow {
		t.Errorf("Expected undecided/low with no evidence, got %s/%s", v.Value, v.Confidence)
	}
	// The verdict was constructed, not sampled
	if provider.verdictCalls != 0 {
		t.Errorf("Expected no verdict model call, got %d", provider.verdictCalls)
	}
	if result.CounterReports[0].NumCitations != 0 {
		t.Errorf("Expected no citations, got %d", result.CounterReports[0].NumCitations)
	}
}

func TestPipeline_CheckAbstract_DegradedStatement(t *testing.T) {
	provider := &scriptedProvider{
		extractResponse: oneStatementResponse(),
		negateErr:       fmt.Errorf("endpoint down"),
	}

	p := NewPipeline(testConfig(), provider, populatedCorpus(), nil)
	result, err := p.CheckAbstract(context.Background(), "We found aspirin reduces mortality.", model.SourceMeta{})
	if err != nil {
		t.Fatalf("Degraded statement must not fail the run: %v", err)
	}

	// Lists stay aligned through the degradation
	if len(result.CounterStatements) != 1 || len(result.Verdicts) != 1 {
		t.Fatalf("Expected aligned lists, got %d counter statements, %d verdicts",
			len(result.CounterStatements), len(result.Verdicts))
	}
	if result.Verdicts[0].Value != model.VerdictUndecided {
		t.Errorf("Expected undecided verdict for degraded statement, got %s", result.Verdicts[0].Value)
	}
	if len(result.Processing.Warnings) == 0 {
		t.Error("Expected a warning recorded for the degradation")
	}
}

func TestPipeline_CheckAbstract_Persists(t *testing.T) {
	auditStore, err := store.Open(filepath.Join(t.TempDir(), "refute.db"))
	if err != nil {
		t.Fatalf("Opening store: %v", err)
	}
	defer auditStore.Close()

	provider := &scriptedProvider{extractResponse: oneStatementResponse()}
	p := NewPipeline(testConfig(), provider, populatedCorpus(), auditStore)

	result, err := p.CheckAbstract(context.Background(), "We found aspirin reduces mortality.", model.SourceMeta{Identifier: "PMID:7"})
	if err != nil {
		t.Fatalf("CheckAbstract returned error: %v", err)
	}
	if result.ID == 0 {
		t.Fatal("Expected persisted result id")
	}

	got, err := auditStore.GetResultByID(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("Reading back result: %v", err)
	}
	if got.Source.Identifier != "PMID:7" {
		t.Errorf("Expected source identifier round-tripped, got %q", got.Source.Identifier)
	}
	if len(got.Verdicts) != 1 || got.Verdicts[0].Value != model.VerdictContradicts {
		t.Errorf("Expected persisted verdict, got %+v", got.Verdicts)
	}
}

func TestPipeline_RunBatch(t *testing.T) {
	provider := &scriptedProvider{extractResponse: oneStatementResponse()}
	p := NewPipeline(testConfig(), provider, populatedCorpus(), nil)

	items := []BatchItem{
		{ID: "one", Abstract: "We found aspirin reduces mortality."},
		{ID: "broken", Abstract: "   "}, // Fails, batch continues
		{ID: "two", Abstract: "We found aspirin reduces mortality."},
	}

	outcomes, err := p.RunBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("RunBatch returned error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(outcomes))
	}

	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Errorf("Expected items one and two to succeed, got %v and %v", outcomes[0].Err, outcomes[2].Err)
	}
	if outcomes[1].Err == nil {
		t.Error("Expected the empty item to fail")
	}
}

func TestPipeline_RunBatch_ContextCancelled(t *testing.T) {
	p := NewPipeline(testConfig(), &scriptedProvider{extractResponse: oneStatementResponse()}, populatedCorpus(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := p.RunBatch(ctx, []BatchItem{{ID: "x", Abstract: "text"}})
	if err == nil {
		t.Fatal("Expected context error")
	}
	if len(outcomes) != 0 {
		t.Errorf("Expected no outcomes after cancellation, got %d", len(outcomes))
	}
}
