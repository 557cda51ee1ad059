// Package cite extracts supporting passages from scored documents,
// formats citations, and synthesizes the counter-report.
package cite

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const citeSystemPrompt = `You are an expert biomedical literature reviewer. You respond only with JSON.`

const citePromptTemplate = `Extract the single passage from this document that best supports the claim below.
The passage must be copied verbatim from the document text.

Claim: %s

Document title: %s
Document abstract: %s

Respond with JSON:
{"passage": "verbatim text from the document", "explanation": "one line on why it is relevant"}`

// Extractor pulls citation passages from high-scoring documents
type Extractor struct {
	provider   llm.Provider
	minScore   float64
	maxAuthors int
}

// NewExtractor creates a citation extractor
func NewExtractor(provider llm.Provider, cfg model.CitationConfig) *Extractor {
	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = 3.0
	}
	maxAuthors := cfg.MaxAuthors
	if maxAuthors <= 0 {
		maxAuthors = 3
	}
	return &Extractor{
		provider:   provider,
		minScore:   minScore,
		maxAuthors: maxAuthors,
	}
}

// Extract produces one citation per qualifying scored document, in input
// order. Per-document extraction failures are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, cs model.CounterStatement, scored []model.ScoredDocument) []model.ExtractedCitation {
	var citations []model.ExtractedCitation

	for _, sd := range scored {
		if float64(sd.Score) < e.minScore {
			continue
		}

		passage, err := e.extractPassage(ctx, cs, sd.Document)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: citation extraction for %s failed, skipped: %v\n", sd.DocID, err)
			continue
		}

		citations = append(citations, model.ExtractedCitation{
			DocID:          sd.DocID,
			Passage:        passage,
			RelevanceScore: sd.Score,
			FullCitation:   FormatCitation(sd.Document, e.maxAuthors),
			Meta: model.CitationMeta{
				PMID:    sd.Document.PMID,
				DOI:     sd.Document.DOI,
				Authors: sd.Document.Authors,
				Year:    sd.Document.Year,
				Journal: sd.Document.Journal,
			},
			Order: len(citations) + 1,
		})
	}

	return citations
}

func (e *Extractor) extractPassage(ctx context.Context, cs model.CounterStatement, doc model.Document) (string, error) {
	raw, err := e.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(citePromptTemplate, cs.NegatedText, doc.Title, doc.Abstract),
		System: citeSystemPrompt,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Passage     string `json:"passage"`
		Explanation string `json:"explanation"`
	}
	if err := llm.UnmarshalResponse(raw, &resp); err != nil {
		return "", err
	}

	passage := strings.TrimSpace(resp.Passage)
	if passage == "" {
		return "", fmt.Errorf("empty passage")
	}

	return passage, nil
}
