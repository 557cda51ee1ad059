package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/refutelab/refute/internal/pipeline"
)

var (
	listLimit    int
	listOffset   int
	showJSONPath string
)

// resultsCmd represents the results command group
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Browse persisted check results",
	Long: `Browse the audit trail of previous checks: list recent results,
show one in full, delete one, or view aggregate statistics.`,
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStoreConfig()
		if err != nil {
			return err
		}

		auditStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		summaries, err := auditStore.ListRecent(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No results stored yet.")
			return nil
		}

		fmt.Printf("%-6s %-22s %-10s %-24s %s\n", "ID", "SOURCE", "STATEMENTS", "VERDICTS (sup/con/und)", "CREATED")
		for _, s := range summaries {
			source := s.SourceIdentifier
			if source == "" {
				source = "-"
			}
			fmt.Printf("%-6d %-22s %-10d %-24s %s\n",
				s.ID, source, s.NumStatements,
				fmt.Sprintf("%d/%d/%d", s.Supports, s.Contradicts, s.Undecided),
				s.CreatedAt.Format("2006-01-02 15:04"))
		}

		return nil
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one result in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid result id %q", args[0])
		}

		cfg, err := loadStoreConfig()
		if err != nil {
			return err
		}

		auditStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		result, err := auditStore.GetResultByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		renderer := pipeline.NewRenderer(true)
		if showJSONPath != "" {
			return renderer.WriteJSON(result, showJSONPath)
		}

		if result.Source.Identifier != "" {
			fmt.Printf("Source: %s\n", result.Source.Identifier)
		}
		fmt.Printf("Checked: %s\n", result.CreatedAt.Format("2006-01-02 15:04:05"))
		renderer.RenderSummary(os.Stdout, result)
		return nil
	},
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a result and its whole audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid result id %q", args[0])
		}

		cfg, err := loadStoreConfig()
		if err != nil {
			return err
		}

		auditStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		if err := auditStore.DeleteResult(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("✓ Deleted result %d\n", id)
		return nil
	},
}

var resultsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics across all results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStoreConfig()
		if err != nil {
			return err
		}

		auditStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		stats, err := auditStore.GetStatistics(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Results:     %d\n", stats.TotalResults)
		fmt.Printf("Statements:  %d\n", stats.TotalStatements)
		fmt.Printf("Citations:   %d\n", stats.TotalCitations)
		fmt.Printf("Verdicts:    %d supported, %d contradicted, %d undecided\n",
			stats.Supports, stats.Contradicts, stats.Undecided)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)
	resultsCmd.AddCommand(resultsStatsCmd)

	resultsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum results to list")
	resultsListCmd.Flags().IntVar(&listOffset, "offset", 0, "results to skip")
	resultsShowCmd.Flags().StringVar(&showJSONPath, "json", "", "write the result as JSON to this path instead")
}
