package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/refutelab/refute/internal/pipeline"
	"github.com/refutelab/refute/internal/store"
)

var (
	batchTimeout time.Duration
	batchNoStore bool
	batchReports bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check a batch of abstracts from a YAML file",
	Long: `Batch reads a YAML list of abstracts and checks them one at a time.
Items are processed strictly in order; a failed item is reported and the
batch continues.

The batch file is a YAML list:

  - id: PMID:12345678
    abstract: "Daily aspirin reduces ..."
    source:
      title: "Aspirin and cardiovascular outcomes"
      year: 2019
  - id: study-2
    abstract: "..."

Example:
  refute batch abstracts.yaml --reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "overall batch timeout")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "skip persisting results")
	batchCmd.Flags().BoolVar(&batchReports, "reports", false, "write a JSON report per item into the output directory")
}

func runBatch(cmd *cobra.Command, args []string) error {
	items, err := pipeline.ReadBatchFile(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("batch file %s contains no items", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	corpusStore, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer corpusStore.Close()

	var auditStore *store.Store
	if !batchNoStore {
		if auditStore, err = openStore(cfg); err != nil {
			return err
		}
		defer auditStore.Close()
	}

	p := pipeline.NewPipeline(cfg, provider, corpusStore, auditStore)

	if verbose {
		p.OnProgress(func(step string, fraction float64) {
			fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, step)
		})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Printf("Checking %d abstract(s) from %s\n", len(items), args[0])

	outcomes, err := p.RunBatch(ctx, items)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("batch aborted: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Verbose)
	var succeeded, failed int
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", outcome.Item.ID, outcome.Err)
			continue
		}
		succeeded++

		supports, contradicts, undecided := outcome.Result.VerdictCounts()
		fmt.Printf("✓ %s: %d supported, %d contradicted, %d undecided\n",
			outcome.Item.ID, supports, contradicts, undecided)

		if batchReports {
			path := outputPath(cfg, outcome.Item.ID)
			if writeErr := renderer.WriteJSON(outcome.Result, path); writeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: writing report for %s: %v\n", outcome.Item.ID, writeErr)
			}
		}
	}

	fmt.Printf("\nBatch complete: %d succeeded, %d failed\n", succeeded, failed)
	return nil
}
