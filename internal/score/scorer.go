// Package score rates candidate documents for relevance to a
// counter-statement.
package score

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/refutelab/refute/internal/corpus"
	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const scoringSystemPrompt = `You are an expert biomedical literature reviewer. You respond only with JSON.`

const scoringPromptTemplate = `Rate how relevant this document is as evidence, on an integer scale of 1-5.

Consider both questions symmetrically:
- Does the document support this claim: %q
- Does the document contradict this claim: %q

5 = directly reports findings matching the first claim or refuting the second
3 = related evidence with partial overlap in intervention, population, or outcome
1 = different topic, no evidentiary value

Document title: %s
Document abstract: %s

Respond with JSON:
{"score": 1-5, "explanation": "one or two sentences"}`

// scoreItem is the expected response shape
type scoreItem struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Scorer rates fused candidates against a counter-statement
type Scorer struct {
	corpus    corpus.Store
	provider  llm.Provider
	threshold float64
	earlyStop int
}

// NewScorer creates a document scorer. earlyStop is the number of
// qualifying hits after which remaining candidates are skipped; 0
// disables early stopping.
func NewScorer(corpusStore corpus.Store, provider llm.Provider, cfg model.ScoringConfig) *Scorer {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 3.0
	}
	return &Scorer{
		corpus:    corpusStore,
		provider:  provider,
		threshold: threshold,
		earlyStop: cfg.EarlyStopCount,
	}
}

// Score rates candidates in fused-rank order. Documents scoring below
// the threshold are discarded; per-document failures (missing record,
// endpoint error, malformed response) are logged and skipped. The output
// is sorted descending by score, ties keeping fused-rank order.
func (s *Scorer) Score(ctx context.Context, cs model.CounterStatement, results model.SearchResults) []model.ScoredDocument {
	var scored []model.ScoredDocument

	for _, docID := range results.Fused {
		// Fused rank approximates relevance likelihood, so the skipped
		// tail is the least promising remainder.
		if s.earlyStop > 0 && len(scored) >= s.earlyStop {
			break
		}

		doc, err := s.corpus.GetDocument(ctx, docID)
		if err != nil {
			if errors.Is(err, corpus.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Warning: candidate %s missing from corpus, skipped\n", docID)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: fetch %s failed, skipped: %v\n", docID, err)
			}
			continue
		}

		item, err := s.scoreDocument(ctx, cs, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: scoring %s failed, skipped: %v\n", docID, err)
			continue
		}

		// Successful scoring of a low-relevance document is not an error;
		// the document simply does not survive.
		if float64(item.Score) < s.threshold {
			continue
		}

		scored = append(scored, model.ScoredDocument{
			DocID:           docID,
			Document:        doc,
			Score:           item.Score,
			Explanation:     item.Explanation,
			SupportsCounter: true,
			FoundBy:         results.Provenance[docID],
		})
	}

	// Stable: input is fused-rank order, which breaks score ties
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	return scored
}

func (s *Scorer) scoreDocument(ctx context.Context, cs model.CounterStatement, doc model.Document) (scoreItem, error) {
	raw, err := s.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(scoringPromptTemplate,
			cs.NegatedText, cs.Statement.Text, doc.Title, doc.Abstract),
		System: scoringSystemPrompt,
	})
	if err != nil {
		return scoreItem{}, err
	}

	var item scoreItem
	if err := llm.UnmarshalResponse(raw, &item); err != nil {
		return scoreItem{}, err
	}

	if item.Score < 1 || item.Score > 5 {
		return scoreItem{}, fmt.Errorf("score %d out of range", item.Score)
	}

	return item, nil
}
