package search

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/refutelab/refute/internal/corpus"
	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

// Coordinator runs the semantic, hyde, and keyword strategies for a
// counter-statement and fuses their rankings. An individual strategy
// failure degrades that strategy to an empty list; all three empty is a
// valid terminal state, not an error.
type Coordinator struct {
	corpus         corpus.Store
	provider       llm.Provider
	maxPerStrategy int
	fusionK        int
	stopOnFirstHit bool
}

// NewCoordinator creates a search coordinator
func NewCoordinator(corpusStore corpus.Store, provider llm.Provider, cfg model.SearchConfig) *Coordinator {
	maxPerStrategy := cfg.MaxPerStrategy
	if maxPerStrategy <= 0 {
		maxPerStrategy = 20
	}

	fusionK := cfg.FusionK
	if fusionK <= 0 {
		fusionK = DefaultFusionK
	}

	return &Coordinator{
		corpus:         corpusStore,
		provider:       provider,
		maxPerStrategy: maxPerStrategy,
		fusionK:        fusionK,
		stopOnFirstHit: cfg.StopOnFirstHit,
	}
}

// Search produces the deduplicated, fused candidate set for a
// counter-statement, with complete strategy provenance.
func (c *Coordinator) Search(ctx context.Context, cs model.CounterStatement) (model.SearchResults, error) {
	results := model.SearchResults{
		Provenance: make(map[string][]model.Strategy),
		Meta: model.SearchMeta{
			StrategyErrors: make(map[model.Strategy]string),
		},
	}

	// Fusion input: the semantic list, one list per hyde embedding, and
	// the keyword list, each an independent ranking.
	var lists [][]model.RankedDoc
	record := func(strategy model.Strategy, list []model.RankedDoc) {
		if len(list) == 0 {
			return
		}
		lists = append(lists, list)
		for _, doc := range list {
			if !hasStrategy(results.Provenance[doc.DocID], strategy) {
				results.Provenance[doc.DocID] = append(results.Provenance[doc.DocID], strategy)
			}
		}
	}

	// 1. Semantic: embed the negated text once
	semantic := c.semanticSearch(ctx, cs.NegatedText, &results.Meta)
	results.SemanticDocs = semantic
	record(model.StrategySemantic, semantic)

	shortCircuit := c.stopOnFirstHit && len(semantic) > 0

	// 2. HyDE: one vector query per hypothetical abstract
	if !shortCircuit {
		for i, abstract := range cs.HydeAbstracts {
			list := c.hydeSearch(ctx, i, abstract, &results.Meta)
			record(model.StrategyHyde, list)
			results.HydeDocs = appendFirstOccurrence(results.HydeDocs, list)
		}
	}

	// 3. Keyword: full-text query from extracted terms
	if !shortCircuit {
		keyword := c.keywordSearch(ctx, cs.Keywords, &results.Meta)
		results.KeywordDocs = keyword
		record(model.StrategyKeyword, keyword)
	}

	results.Meta.ShortCircuited = shortCircuit

	fused := FuseRRF(lists, c.fusionK)
	results.Fused = make([]string, len(fused))
	for i, doc := range fused {
		results.Fused[i] = doc.DocID
	}

	if len(results.Meta.StrategyErrors) == 0 {
		results.Meta.StrategyErrors = nil
	}

	return results, nil
}

func (c *Coordinator) semanticSearch(ctx context.Context, negatedText string, meta *model.SearchMeta) []model.RankedDoc {
	embedding, err := c.provider.Embed(ctx, negatedText)
	if err != nil {
		c.degrade(meta, model.StrategySemantic, fmt.Errorf("embed negated text: %w", err))
		return nil
	}

	meta.QueriesRun++
	list, err := c.corpus.VectorSearch(ctx, embedding, c.maxPerStrategy)
	if err != nil {
		c.degrade(meta, model.StrategySemantic, err)
		return nil
	}

	return list
}

func (c *Coordinator) hydeSearch(ctx context.Context, idx int, abstract string, meta *model.SearchMeta) []model.RankedDoc {
	embedding, err := c.provider.Embed(ctx, abstract)
	if err != nil {
		c.degrade(meta, model.StrategyHyde, fmt.Errorf("embed hypothetical abstract %d: %w", idx+1, err))
		return nil
	}

	meta.QueriesRun++
	list, err := c.corpus.VectorSearch(ctx, embedding, c.maxPerStrategy)
	if err != nil {
		c.degrade(meta, model.StrategyHyde, err)
		return nil
	}

	return list
}

func (c *Coordinator) keywordSearch(ctx context.Context, keywords []string, meta *model.SearchMeta) []model.RankedDoc {
	if len(keywords) == 0 {
		return nil
	}

	meta.QueriesRun++
	list, err := c.corpus.KeywordSearch(ctx, strings.Join(keywords, " "), c.maxPerStrategy)
	if err != nil {
		c.degrade(meta, model.StrategyKeyword, err)
		return nil
	}

	return list
}

// degrade records a strategy failure; fusion proceeds over whatever
// succeeded
func (c *Coordinator) degrade(meta *model.SearchMeta, strategy model.Strategy, err error) {
	fmt.Fprintf(os.Stderr, "Warning: %s strategy degraded: %v\n", strategy, err)
	if prev, ok := meta.StrategyErrors[strategy]; ok {
		meta.StrategyErrors[strategy] = prev + "; " + err.Error()
		return
	}
	meta.StrategyErrors[strategy] = err.Error()
}

func hasStrategy(list []model.Strategy, s model.Strategy) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}

// appendFirstOccurrence merges a ranked list into acc, keeping only the
// first occurrence of each document
func appendFirstOccurrence(acc, list []model.RankedDoc) []model.RankedDoc {
	seen := make(map[string]bool, len(acc))
	for _, doc := range acc {
		seen[doc.DocID] = true
	}
	for _, doc := range list {
		if !seen[doc.DocID] {
			seen[doc.DocID] = true
			acc = append(acc, doc)
		}
	}
	return acc
}
