package cite

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const synthesizePromptTemplate = `Summarize the counter-evidence below in 3-5 sentences of plain prose.
Describe what the cited literature reports, how consistent it is, and how directly it bears on the claim.
Do not render a verdict; only characterize the evidence.

Claim under examination: %s
Counter-claim searched for: %s

Search statistics: %d candidate documents found, %d scored relevant, %d cited.

Citations:
%s`

// Synthesizer turns citations into counter-report prose
type Synthesizer struct {
	provider  llm.Provider
	config    llm.Config
	fallbackN int
}

// NewSynthesizer creates a counter-report synthesizer. fallbackN bounds
// how many citations the templated fallback summary quotes.
func NewSynthesizer(provider llm.Provider, config llm.Config, fallbackN int) *Synthesizer {
	if fallbackN <= 0 {
		fallbackN = 3
	}
	return &Synthesizer{
		provider:  provider,
		config:    config,
		fallbackN: fallbackN,
	}
}

// Synthesize produces the counter-report for one counter-statement. On
// synthesis failure it degrades to a templated summary built from the
// leading citations; synthesis is never pipeline-fatal.
func (s *Synthesizer) Synthesize(ctx context.Context, cs model.CounterStatement, citations []model.ExtractedCitation, stats model.SearchStats) model.CounterReport {
	report := model.CounterReport{
		NumCitations: len(citations),
		Citations:    citations,
		Stats:        stats,
		Meta: model.GenerationMeta{
			Provider:    s.provider.Name(),
			Model:       s.config.Model,
			Temperature: s.config.Temperature,
			GeneratedAt: time.Now().UTC(),
		},
	}

	if len(citations) == 0 {
		report.Summary = fmt.Sprintf(
			"No counter-evidence was located: %d candidate documents were found and none scored relevant.",
			stats.DocsFound)
		return report
	}

	summary, err := s.synthesize(ctx, cs, citations, stats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: counter-report synthesis failed, using templated summary: %v\n", err)
		report.Summary = s.fallbackSummary(citations, stats)
		report.Fallback = true
		return report
	}

	report.Summary = summary
	return report
}

func (s *Synthesizer) synthesize(ctx context.Context, cs model.CounterStatement, citations []model.ExtractedCitation, stats model.SearchStats) (string, error) {
	var lines []string
	for _, c := range citations {
		lines = append(lines, fmt.Sprintf("[%d] %s — %q", c.Order, c.FullCitation, c.Passage))
	}

	raw, err := s.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(synthesizePromptTemplate,
			cs.Statement.Text, cs.NegatedText,
			stats.DocsFound, stats.DocsScored, stats.DocsCited,
			strings.Join(lines, "\n")),
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("empty synthesis response")
	}

	return summary, nil
}

// fallbackSummary is the documented degraded mode: a deterministic
// template over the first fallbackN citations.
func (s *Synthesizer) fallbackSummary(citations []model.ExtractedCitation, stats model.SearchStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d of %d candidate documents provide counter-evidence.", len(citations), stats.DocsFound)

	n := len(citations)
	if n > s.fallbackN {
		n = s.fallbackN
	}
	for _, c := range citations[:n] {
		fmt.Fprintf(&b, " %s reports: %q.", c.FullCitation, c.Passage)
	}

	return b.String()
}
