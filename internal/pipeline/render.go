package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/refutelab/refute/internal/model"
)

// Renderer writes check results to disk and the terminal
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// WriteJSON writes the full result as indented JSON, creating parent
// directories as needed.
func (r *Renderer) WriteJSON(result *model.PaperCheckResult, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if r.verbose {
		fmt.Printf("✓ Wrote JSON: %s\n", path)
	}
	return nil
}

// RenderSummary prints a human-readable digest of the result
func (r *Renderer) RenderSummary(w io.Writer, result *model.PaperCheckResult) {
	supports, contradicts, undecided := result.VerdictCounts()

	fmt.Fprintf(w, "\nChecked %d statement(s): %d supported, %d contradicted, %d undecided\n",
		len(result.Statements), supports, contradicts, undecided)

	for i, stmt := range result.Statements {
		if i >= len(result.Verdicts) {
			break
		}
		v := result.Verdicts[i]
		fmt.Fprintf(w, "\n%d. %s\n   Verdict: %s (%s confidence)\n   %s\n",
			stmt.Order, stmt.Text, v.Value, v.Confidence, v.Rationale)

		if r.verbose && i < len(result.CounterReports) {
			report := result.CounterReports[i]
			fmt.Fprintf(w, "   Citations: %d\n", report.NumCitations)
			for _, c := range report.Citations {
				fmt.Fprintf(w, "     [%d] %s\n", c.Order, c.FullCitation)
			}
		}
	}

	if result.OverallAssessment != "" {
		fmt.Fprintf(w, "\nOverall: %s\n", result.OverallAssessment)
	}

	if r.verbose && len(result.Processing.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range result.Processing.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
