package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/refutelab/refute/internal/model"
)

// BatchItem is one abstract in a batch file
type BatchItem struct {
	ID       string           `yaml:"id"`
	Abstract string           `yaml:"abstract"`
	Source   model.SourceMeta `yaml:"source,omitempty"`
}

// BatchOutcome pairs a batch item with what became of it
type BatchOutcome struct {
	Item   BatchItem
	Result *model.PaperCheckResult
	Err    error
}

// ReadBatchFile loads a YAML batch file: a list of items with id,
// abstract, and optional source metadata.
func ReadBatchFile(path string) ([]BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var items []BatchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", path, err)
	}

	for i := range items {
		if strings.TrimSpace(items[i].Abstract) == "" {
			return nil, fmt.Errorf("batch item %d (%s): abstract is empty", i+1, items[i].ID)
		}
		if items[i].Source.Identifier == "" {
			items[i].Source.Identifier = items[i].ID
		}
	}

	return items, nil
}

// RunBatch checks each item in order, one at a time. A failed item is
// recorded in its outcome and the batch continues; RunBatch itself only
// fails on context cancellation.
func (p *Pipeline) RunBatch(ctx context.Context, items []BatchItem) ([]BatchOutcome, error) {
	outcomes := make([]BatchOutcome, 0, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		p.report(fmt.Sprintf("batch item %d/%d", i+1, len(items)), float64(i)/float64(len(items)))

		result, err := p.CheckAbstract(ctx, item.Abstract, item.Source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: batch item %d (%s) failed: %v\n", i+1, item.ID, err)
		}
		outcomes = append(outcomes, BatchOutcome{Item: item, Result: result, Err: err})
	}

	return outcomes, nil
}
