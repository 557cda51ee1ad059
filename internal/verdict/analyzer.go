// Package verdict renders the final classification of a statement
// against its retrieved counter-evidence.
package verdict

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const verdictSystemPrompt = `You are an expert biomedical evidence assessor. You respond only with JSON.`

const verdictPromptTemplate = `Compare a published claim against counter-evidence gathered from the literature and classify it.

Claim: %s

Counter-evidence summary: %s

Counter-evidence citations (%d):
%s

Classify the claim:
- "supports": the located literature is consistent with the claim
- "contradicts": the counter-evidence outweighs the claim
- "undecided": the evidence is insufficient or conflicting

Respond with JSON:
{"verdict": "supports" | "contradicts" | "undecided", "rationale": "2-3 sentences", "confidence": "high" | "medium" | "low"}`

const assessmentPromptTemplate = `Write a 3-5 sentence overall assessment of this abstract, given the per-statement verdicts below.
Weigh how many statements held up, which were contradicted, and how strong the counter-evidence was.

Abstract statements and verdicts:
%s`

// verdictItem is the expected response shape
type verdictItem struct {
	Verdict    string `json:"verdict"`
	Rationale  string `json:"rationale"`
	Confidence string `json:"confidence"`
}

// Analyzer renders verdicts and the cross-statement assessment
type Analyzer struct {
	provider llm.Provider
	config   llm.Config
}

// NewAnalyzer creates a verdict analyzer
func NewAnalyzer(provider llm.Provider, config llm.Config) *Analyzer {
	return &Analyzer{provider: provider, config: config}
}

// Analyze classifies a statement against its counter-report. The verdict
// is constrained to the closed set; an out-of-set or unparseable response
// gets one retry (a fresh sample, not a reparse) before falling back to
// undecided with low confidence. With no citations at all the verdict is
// undecided by construction and no model call is made.
func (a *Analyzer) Analyze(ctx context.Context, stmt model.Statement, report model.CounterReport) model.Verdict {
	verdict := model.Verdict{
		Report: report,
		Meta: model.GenerationMeta{
			Provider:    a.provider.Name(),
			Model:       a.config.Model,
			Temperature: a.config.Temperature,
			GeneratedAt: time.Now().UTC(),
		},
	}

	if report.NumCitations == 0 {
		verdict.Value = model.VerdictUndecided
		verdict.Confidence = model.ConfidenceLow
		verdict.Rationale = "No counter-evidence was located in the corpus, so the statement cannot be assessed either way."
		return verdict
	}

	// Initial attempt plus one retry-by-regeneration
	for attempt := 0; attempt < 2; attempt++ {
		item, err := a.classify(ctx, stmt, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: verdict attempt %d for statement %d failed: %v\n",
				attempt+1, stmt.Order, err)
			continue
		}

		verdict.Value = model.VerdictValue(item.Verdict)
		verdict.Rationale = strings.TrimSpace(item.Rationale)
		verdict.Confidence = model.ConfidenceLevel(strings.ToLower(item.Confidence))
		if !model.ValidConfidence(verdict.Confidence) {
			verdict.Confidence = model.ConfidenceLow
		}
		return verdict
	}

	verdict.Value = model.VerdictUndecided
	verdict.Confidence = model.ConfidenceLow
	verdict.Rationale = "The verdict could not be determined from the model's responses."
	return verdict
}

func (a *Analyzer) classify(ctx context.Context, stmt model.Statement, report model.CounterReport) (verdictItem, error) {
	var lines []string
	for _, c := range report.Citations {
		lines = append(lines, fmt.Sprintf("[%d] %s — %q", c.Order, c.FullCitation, c.Passage))
	}

	raw, err := a.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(verdictPromptTemplate,
			stmt.Text, report.Summary, report.NumCitations, strings.Join(lines, "\n")),
		System: verdictSystemPrompt,
	})
	if err != nil {
		return verdictItem{}, err
	}

	var item verdictItem
	if err := llm.UnmarshalResponse(raw, &item); err != nil {
		return verdictItem{}, err
	}

	item.Verdict = strings.ToLower(strings.TrimSpace(item.Verdict))
	if !model.ValidVerdict(model.VerdictValue(item.Verdict)) {
		// Out-of-set value from the model is a parse failure
		return verdictItem{}, fmt.Errorf("verdict %q outside permitted set", item.Verdict)
	}

	return item, nil
}

// OverallAssessment produces the cross-statement prose for the abstract.
// On failure it degrades to a templated tally.
func (a *Analyzer) OverallAssessment(ctx context.Context, statements []model.Statement, verdicts []model.Verdict) string {
	var lines []string
	for i, stmt := range statements {
		if i >= len(verdicts) {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %q — %s (%s confidence): %s",
			stmt.Order, stmt.Text, verdicts[i].Value, verdicts[i].Confidence, verdicts[i].Rationale))
	}

	raw, err := a.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(assessmentPromptTemplate, strings.Join(lines, "\n")),
	})
	if err == nil {
		if summary := strings.TrimSpace(raw); summary != "" {
			return summary
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: overall assessment failed, using tally: %v\n", err)
	}

	return tally(verdicts)
}

// tally is the templated assessment fallback
func tally(verdicts []model.Verdict) string {
	var supports, contradicts, undecided int
	for _, v := range verdicts {
		switch v.Value {
		case model.VerdictSupports:
			supports++
		case model.VerdictContradicts:
			contradicts++
		default:
			undecided++
		}
	}
	return fmt.Sprintf("Of %d statements checked: %d supported, %d contradicted, %d undecided.",
		len(verdicts), supports, contradicts, undecided)
}
