package counter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
)

// hydePromptTemplates vary the framing of the fabricated abstract to
// increase lexical diversity across the generated embeddings.
var hydePromptTemplates = []string{
	`Write a short plausible abstract (3-5 sentences) of a research paper whose findings support this claim:

%s

Write it as a results-focused research abstract. Plain prose only, no headings, no JSON.`,

	`Write a short plausible abstract (3-5 sentences) of a clinical study whose outcomes support this claim:

%s

Describe the patient population, intervention, and observed outcomes. Plain prose only, no headings, no JSON.`,

	`Write a short plausible abstract (3-5 sentences) of a scientific review concluding in favor of this claim:

%s

Summarize the weight of evidence as a review would. Plain prose only, no headings, no JSON.`,
}

// generateHyde produces up to numDocs hypothetical abstracts supporting
// the negated claim. Each generation is independent: a failed variant is
// logged and skipped, and whatever succeeded is returned.
func (g *Generator) generateHyde(ctx context.Context, stmt model.Statement, negated string) []string {
	var abstracts []string

	for i := 0; i < g.numDocs; i++ {
		template := hydePromptTemplates[i%len(hydePromptTemplates)]

		raw, err := g.provider.Generate(ctx, llm.GenerateRequest{
			Prompt:      fmt.Sprintf(template, negated),
			Temperature: 0.7, // Diversity matters more than determinism here
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: hypothetical abstract %d/%d failed for statement %d: %v\n",
				i+1, g.numDocs, stmt.Order, err)
			continue
		}

		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		abstracts = append(abstracts, text)
	}

	return abstracts
}
