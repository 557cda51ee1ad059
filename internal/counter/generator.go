// Package counter builds counter-statements: the negated form of a
// claim, hypothetical abstracts supporting the negation, and keywords
// for full-text search.
package counter

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const negateSystemPrompt = `You are an expert biomedical researcher constructing contrary claims. You respond only with JSON.`

const negatePromptTemplate = `Construct the strongest plausible contrary claim to this biomedical statement.
Preserve the domain terminology (drug names, conditions, populations, outcomes) exactly.
Negate the direction of the effect or finding, not the vocabulary.

Statement: %s
Context: %s

Respond with JSON:
{"counter_statement": "the contrary claim"}`

const keywordsPromptTemplate = `List the best literature search terms for finding evidence about this claim.
Prefer specific biomedical terms (interventions, conditions, outcomes) over generic words.

Claim: %s

Respond with a JSON array of at most %d strings.`

// Generator produces CounterStatements from Statements
type Generator struct {
	provider    llm.Provider
	config      llm.Config
	numDocs     int
	maxKeywords int
}

// NewGenerator creates a new counter-statement generator
func NewGenerator(provider llm.Provider, config llm.Config, numDocs, maxKeywords int) *Generator {
	if numDocs <= 0 {
		numDocs = 3
	}
	if maxKeywords <= 0 {
		maxKeywords = 8
	}
	return &Generator{
		provider:    provider,
		config:      config,
		numDocs:     numDocs,
		maxKeywords: maxKeywords,
	}
}

// Generate negates the statement and produces hypothetical abstracts and
// keywords for it. Negation failure is an error and skips the statement;
// hypothetical-abstract and keyword failures degrade.
func (g *Generator) Generate(ctx context.Context, stmt model.Statement) (model.CounterStatement, error) {
	negated, err := g.negate(ctx, stmt)
	if err != nil {
		return model.CounterStatement{}, err
	}

	cs := model.CounterStatement{
		Statement:     stmt,
		NegatedText:   negated,
		HydeAbstracts: g.generateHyde(ctx, stmt, negated),
		Keywords:      g.keywords(ctx, negated),
		Meta: model.GenerationMeta{
			Provider:    g.provider.Name(),
			Model:       g.config.Model,
			Temperature: g.config.Temperature,
			GeneratedAt: time.Now().UTC(),
		},
	}

	return cs, nil
}

// negate asks the model for the contrary claim. A response without a
// parseable counter_statement is an error: the statement is skipped and
// recorded, never silently dropped.
func (g *Generator) negate(ctx context.Context, stmt model.Statement) (string, error) {
	raw, err := g.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(negatePromptTemplate, stmt.Text, stmt.Context),
		System: negateSystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("negation: %w", err)
	}

	var resp struct {
		CounterStatement string `json:"counter_statement"`
	}
	if err := llm.UnmarshalResponse(raw, &resp); err != nil {
		return "", fmt.Errorf("negation: %w", err)
	}
	if strings.TrimSpace(resp.CounterStatement) == "" {
		return "", fmt.Errorf("negation: empty counter statement")
	}

	return strings.TrimSpace(resp.CounterStatement), nil
}

// keywords extracts search terms for the negated claim. On failure it
// degrades to a heuristic term split of the claim itself.
func (g *Generator) keywords(ctx context.Context, negated string) []string {
	raw, err := g.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(keywordsPromptTemplate, negated, g.maxKeywords),
		System: negateSystemPrompt,
	})

	var terms []string
	if err == nil {
		err = llm.UnmarshalResponse(raw, &terms)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: keyword extraction failed, using heuristic terms: %v\n", err)
		return heuristicKeywords(negated, g.maxKeywords)
	}

	var out []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) >= g.maxKeywords {
			break
		}
	}

	if len(out) == 0 {
		return heuristicKeywords(negated, g.maxKeywords)
	}

	return out
}

// stopwords excluded from heuristic keyword extraction
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "and": true, "or": true, "with": true,
	"is": true, "are": true, "was": true, "were": true, "not": true,
	"no": true, "does": true, "do": true, "did": true, "that": true,
	"this": true, "by": true, "as": true, "at": true, "from": true,
}

// heuristicKeywords picks significant terms from the claim text
func heuristicKeywords(text string, max int) []string {
	seen := make(map[string]bool)
	var out []string

	for _, word := range strings.Fields(text) {
		word = strings.ToLower(strings.Trim(word, ".,;:!?()[]\""))
		if len(word) < 4 || stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) >= max {
			break
		}
	}

	return out
}
