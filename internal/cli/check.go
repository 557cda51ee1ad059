package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/refutelab/refute/internal/model"
	"github.com/refutelab/refute/internal/pipeline"
	"github.com/refutelab/refute/internal/store"
)

var (
	checkFile     string
	checkSourceID string
	checkTitle    string
	checkTimeout  time.Duration
	checkJSON     string
	checkNoStore  bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [abstract text]",
	Short: "Check one abstract against the corpus",
	Long: `Check extracts the key statements of an abstract, searches the corpus
for counter-evidence to each, and renders per-statement verdicts.

The abstract may be passed as an argument, read from a file with --file,
or piped on stdin with --file -.

Example:
  refute check --file abstract.txt --source-id PMID:12345678
  cat abstract.txt | refute check --file -
  refute check "Daily aspirin reduces cardiovascular mortality in adults over 50."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "read the abstract from a file (- for stdin)")
	checkCmd.Flags().StringVar(&checkSourceID, "source-id", "", "source identifier (PMID, DOI, ...)")
	checkCmd.Flags().StringVar(&checkTitle, "title", "", "source paper title")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&checkJSON, "json", "", "write the full result as JSON to this path")
	checkCmd.Flags().BoolVar(&checkNoStore, "no-store", false, "skip persisting the result")
}

func runCheck(cmd *cobra.Command, args []string) error {
	abstract, err := readAbstract(args)
	if err != nil {
		return err
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
	if !checkNoStore {
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

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	source := model.SourceMeta{Identifier: checkSourceID, Title: checkTitle}
	result, err := p.CheckAbstract(ctx, abstract, source)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Verbose)
	if checkJSON != "" {
		if err := renderer.WriteJSON(result, checkJSON); err != nil {
			return err
		}
	}
	renderer.RenderSummary(os.Stdout, result)

	if result.ID > 0 {
		fmt.Printf("\nSaved as result %d (view with 'refute results show %d')\n", result.ID, result.ID)
	}

	return nil
}

// readAbstract resolves the abstract from the argument, a file, or stdin
func readAbstract(args []string) (string, error) {
	if checkFile != "" && len(args) > 0 {
		return "", fmt.Errorf("pass the abstract as an argument or with --file, not both")
	}

	switch {
	case len(args) > 0:
		return args[0], nil
	case checkFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case checkFile != "":
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", checkFile, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("no abstract given: pass it as an argument or with --file")
	}
}

// outputPath builds a per-item report path in the configured output dir
func outputPath(cfg *model.Config, name string) string {
	return filepath.Join(cfg.Output.Dir, name+".json")
}
