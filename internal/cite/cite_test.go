package cite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

type mockProvider struct {
	response string
	err      error
	failFor  string // Fail when the prompt mentions this title
	calls    int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.failFor != "" && strings.Contains(req.Prompt, m.failFor) {
		return "", fmt.Errorf("simulated failure")
	}
	return m.response, nil
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("not used")
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func scoredDoc(id string, score int) model.ScoredDocument {
	return model.ScoredDocument{
		DocID: id,
		Document: model.Document{
			ID:       id,
			Title:    "title-" + id,
			Abstract: "abstract text",
			Authors:  []string{"Smith J"},
			Year:     2020,
		},
		Score: score,
	}
}

func TestExtractor_Extract(t *testing.T) {
	provider := &mockProvider{response: `{"passage": "a verbatim passage", "explanation": "relevant"}`}

	e := NewExtractor(provider, model.CitationConfig{MinScore: 3.0, MaxAuthors: 3})
	citations := e.Extract(context.Background(), model.CounterStatement{}, []model.ScoredDocument{
		scoredDoc("a", 5),
		scoredDoc("b", 4),
	})

	if len(citations) != 2 {
		t.Fatalf("Expected 2 citations, got %d", len(citations))
	}
	if citations[0].Order != 1 || citations[1].Order != 2 {
		t.Errorf("Expected 1-based citation order, got %d and %d", citations[0].Order, citations[1].Order)
	}
	if citations[0].Passage != "a verbatim passage" {
		t.Errorf("Unexpected passage: %q", citations[0].Passage)
	}
	if citations[0].FullCitation == "" {
		t.Error("Expected formatted citation")
	}
	if citations[0].RelevanceScore != 5 {
		t.Errorf("Expected relevance score carried over, got %d", citations[0].RelevanceScore)
	}
}

func TestExtractor_Extract_BelowMinScoreSkipped(t *testing.T) {
	provider := &mockProvider{response: `{"passage": "p", "explanation": "e"}`}

	e := NewExtractor(provider, model.CitationConfig{MinScore: 4.0})
	citations := e.Extract(context.Background(), model.CounterStatement{}, []model.ScoredDocument{
		scoredDoc("a", 5),
		scoredDoc("b", 3),
	})

	if len(citations) != 1 || citations[0].DocID != "a" {
		t.Errorf("Expected only the high scorer cited, got %v", citations)
	}
	if provider.calls != 1 {
		t.Errorf("Expected no extraction call for the low scorer, got %d calls", provider.calls)
	}
}

func TestExtractor_Extract_FailedDocumentSkippedOrderContiguous(t *testing.T) {
	provider := &mockProvider{
		response: `{"passage": "p", "explanation": "e"}`,
		failFor:  "title-b",
	}

	e := NewExtractor(provider, model.CitationConfig{})
	citations := e.Extract(context.Background(), model.CounterStatement{}, []model.ScoredDocument{
		scoredDoc("a", 5),
		scoredDoc("b", 5),
		scoredDoc("c", 5),
	})

	if len(citations) != 2 {
		t.Fatalf("Expected 2 citations after one failure, got %d", len(citations))
	}
	// Order stays contiguous despite the skip
	if citations[0].Order != 1 || citations[1].Order != 2 {
		t.Errorf("Expected contiguous order, got %d and %d", citations[0].Order, citations[1].Order)
	}
	if citations[1].DocID != "c" {
		t.Errorf("Expected c after the skip, got %s", citations[1].DocID)
	}
}

func TestFormatCitation_FullAuthorList(t *testing.T) {
	doc := model.Document{
		Title:   "Aspirin and mortality",
		Authors: []string{"Smith J", "Jones K"},
		Journal: "N Engl J Med",
		Year:    2020,
		PMID:    "12345",
		DOI:     "10.1000/xyz",
	}

	got := FormatCitation(doc, 3)
	want := "Smith J, Jones K. (2020). Aspirin and mortality. N Engl J Med. PMID: 12345. doi:10.1000/xyz"
	if got != want {
		t.Errorf("FormatCitation:\n got %q\nwant %q", got, want)
	}
}

func TestFormatCitation_TruncatesAuthors(t *testing.T) {
	doc := model.Document{
		Title:   "T",
		Authors: []string{"A", "B", "C", "D"},
		Year:    2019,
	}

	got := FormatCitation(doc, 3)
	if !strings.HasPrefix(got, "A, et al.") {
		t.Errorf("Expected et al. truncation, got %q", got)
	}
}

func TestFormatCitation_NoAuthors(t *testing.T) {
	got := FormatCitation(model.Document{Title: "T", Year: 2019}, 3)
	if !strings.HasPrefix(got, "[no authors listed]") {
		t.Errorf("Expected placeholder for missing authors, got %q", got)
	}
}

func TestFormatCitation_Deterministic(t *testing.T) {
	doc := model.Document{Title: "T", Authors: []string{"A"}, Year: 2019}
	first := FormatCitation(doc, 3)
	for i := 0; i < 5; i++ {
		if got := FormatCitation(doc, 3); got != first {
			t.Fatalf("Formatting changed between calls: %q vs %q", first, got)
		}
	}
}

func TestSynthesizer_Synthesize(t *testing.T) {
	provider := &mockProvider{response: "The literature consistently reports the opposite effect."}

	s := NewSynthesizer(provider, llm.DefaultConfig(), 3)
	report := s.Synthesize(context.Background(), model.CounterStatement{},
		[]model.ExtractedCitation{{Order: 1, FullCitation: "Smith J. (2020). T.", Passage: "p"}},
		model.SearchStats{DocsFound: 10, DocsScored: 3, DocsCited: 1})

	if report.Fallback {
		t.Error("Expected LLM summary, not fallback")
	}
	if report.Summary != "The literature consistently reports the opposite effect." {
		t.Errorf("Unexpected summary: %q", report.Summary)
	}
	if report.NumCitations != 1 {
		t.Errorf("Expected 1 citation, got %d", report.NumCitations)
	}
}

func TestSynthesizer_Synthesize_NoCitations(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("must not be called")}

	s := NewSynthesizer(provider, llm.DefaultConfig(), 3)
	report := s.Synthesize(context.Background(), model.CounterStatement{}, nil,
		model.SearchStats{DocsFound: 7})

	if provider.calls != 0 {
		t.Error("Expected no model call with zero citations")
	}
	if report.NumCitations != 0 {
		t.Errorf("Expected 0 citations, got %d", report.NumCitations)
	}
	if !strings.Contains(report.Summary, "No counter-evidence") {
		t.Errorf("Expected deterministic no-evidence summary, got %q", report.Summary)
	}
}

func TestSynthesizer_Synthesize_FallbackOnFailure(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("endpoint down")}

	citations := []model.ExtractedCitation{
		{Order: 1, FullCitation: "Smith J. (2020). One.", Passage: "passage one"},
		{Order: 2, FullCitation: "Jones K. (2021). Two.", Passage: "passage two"},
		{Order: 3, FullCitation: "Lee H. (2022). Three.", Passage: "passage three"},
		{Order: 4, FullCitation: "Park S. (2023). Four.", Passage: "passage four"},
	}

	s := NewSynthesizer(provider, llm.DefaultConfig(), 2)
	report := s.Synthesize(context.Background(), model.CounterStatement{}, citations,
		model.SearchStats{DocsFound: 10, DocsScored: 4, DocsCited: 4})

	if !report.Fallback {
		t.Error("Expected fallback flag set")
	}
	// Only the first two citations are quoted
	if !strings.Contains(report.Summary, "passage one") || !strings.Contains(report.Summary, "passage two") {
		t.Errorf("Expected leading citations quoted, got %q", report.Summary)
	}
	if strings.Contains(report.Summary, "passage three") {
		t.Errorf("Expected fallback cap respected, got %q", report.Summary)
	}
	// All citations still attached to the report
	if report.NumCitations != 4 {
		t.Errorf("Expected all 4 citations kept, got %d", report.NumCitations)
	}
}
