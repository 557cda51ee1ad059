// Package extract pulls checkable statements out of abstract text.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

const statementSystemPrompt = `You are an expert biomedical claim analyst. You respond only with JSON.`

const statementPromptTemplate = `Extract up to %d checkable factual statements from this biomedical abstract.
A checkable statement asserts something that published literature could support or contradict.
Skip background, methods descriptions, and vague qualitative remarks.

Abstract:
%s

Respond with a JSON array, ordered as the statements appear in the text. Each element:
{
  "text": "the statement, self-contained",
  "context": "the surrounding sentence(s) from the abstract",
  "type": "hypothesis" | "finding" | "conclusion",
  "confidence": 0.0-1.0
}`

// statementItem is the expected per-statement response shape
type statementItem struct {
	Text       string  `json:"text"`
	Context    string  `json:"context"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// StatementExtractor extracts checkable claims from an abstract
type StatementExtractor struct {
	provider      llm.Provider
	maxStatements int
}

// NewStatementExtractor creates a new statement extractor
func NewStatementExtractor(provider llm.Provider, maxStatements int) *StatementExtractor {
	if maxStatements <= 0 {
		maxStatements = 5
	}
	return &StatementExtractor{
		provider:      provider,
		maxStatements: maxStatements,
	}
}

// Extract pulls up to maxStatements statements from the abstract, in
// order of appearance. A model response that cannot be parsed yields an
// empty list, not an error: "no checkable statements" is a valid
// outcome. Endpoint failures are returned to the caller.
func (e *StatementExtractor) Extract(ctx context.Context, abstract string) ([]model.Statement, error) {
	text := StripMarkup(abstract)

	raw, err := e.provider.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf(statementPromptTemplate, e.maxStatements, text),
		System: statementSystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("statement extraction: %w", err)
	}

	var items []statementItem
	if err := llm.UnmarshalResponse(raw, &items); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: statement extraction parse failure: %v\n", err)
		return []model.Statement{}, nil
	}

	statements := make([]model.Statement, 0, len(items))
	for _, item := range items {
		if len(statements) >= e.maxStatements {
			break
		}
		if strings.TrimSpace(item.Text) == "" {
			continue
		}

		st := model.Statement{
			Text:       strings.TrimSpace(item.Text),
			Context:    strings.TrimSpace(item.Context),
			Type:       model.StatementType(item.Type),
			Confidence: clamp01(item.Confidence),
			Order:      len(statements) + 1,
		}
		if !model.ValidStatementType(st.Type) {
			st.Type = model.StatementFinding
		}

		statements = append(statements, st)
	}

	return statements, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
