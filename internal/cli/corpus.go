package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/refutelab/refute/internal/corpus"
)

var (
	loadTimeout time.Duration
	loadNoEmbed bool
)

// corpusCmd represents the corpus command group
var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the literature corpus",
}

var corpusLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load documents from a YAML file into the corpus",
	Long: `Load reads a YAML list of documents, embeds each abstract with the
configured embedding model, and upserts them into the corpus database.
Documents are matched by id, so reloading a file updates in place.

The documents file is a YAML list:

  - id: pmid-31645288
    title: "Effects of aspirin on cardiovascular events"
    abstract: "..."
    authors: ["McNeil JJ", "Wolfe R"]
    journal: "N Engl J Med"
    year: 2018
    pmid: "31645288"

With --no-embed documents are stored without embeddings and only reachable
through keyword search.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusLoad,
}

var corpusCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of documents in the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStoreConfig()
		if err != nil {
			return err
		}

		corpusStore, err := openCorpus(cfg)
		if err != nil {
			return err
		}
		defer corpusStore.Close()

		n, err := corpusStore.Count(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%d document(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusLoadCmd)
	corpusCmd.AddCommand(corpusCountCmd)

	corpusLoadCmd.Flags().DurationVar(&loadTimeout, "timeout", 30*time.Minute, "overall load timeout")
	corpusLoadCmd.Flags().BoolVar(&loadNoEmbed, "no-embed", false, "store documents without embeddings")
}

func runCorpusLoad(cmd *cobra.Command, args []string) error {
	docs, err := corpus.ReadDocumentsFile(args[0])
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("documents file %s contains no documents", args[0])
	}

	loadCfg := loadStoreConfig
	if !loadNoEmbed {
		loadCfg = loadConfig
	}
	cfg, err := loadCfg()
	if err != nil {
		return err
	}

	corpusStore, err := corpus.OpenSQLite(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer corpusStore.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()

	var embed func(context.Context, string) ([]float32, error)
	if !loadNoEmbed {
		provider, err := buildProvider(cfg)
		if err != nil {
			return err
		}
		embed = provider.Embed
	}

	var loaded, failed int
	for i, doc := range docs {
		var embedding []float32
		if embed != nil {
			embedding, err = embed(ctx, doc.Abstract)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Warning: embedding document %d (%s) failed, stored without embedding: %v\n",
					i+1, doc.ID, err)
				embedding = nil
			}
		}

		if err := corpusStore.AddDocument(ctx, doc, embedding); err != nil {
			return fmt.Errorf("adding document %s: %w", doc.ID, err)
		}
		loaded++

		if verbose {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, len(docs), doc.ID)
		}
	}

	fmt.Printf("✓ Loaded %d document(s) into %s", loaded, cfg.Corpus.Path)
	if failed > 0 {
		fmt.Printf(" (%d without embeddings)", failed)
	}
	fmt.Println()

	return nil
}
