package model

import "time"

// SourceMeta describes where an abstract came from
type SourceMeta struct {
	Identifier string   `json:"identifier,omitempty"` // PMID, DOI, or caller-chosen id
	Title      string   `json:"title,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Journal    string   `json:"journal,omitempty"`
	Year       int      `json:"year,omitempty"`
}

// ProcessingMeta records how a pipeline run went
type ProcessingMeta struct {
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Warnings   []string  `json:"warnings,omitempty"` // Degraded stages, one entry each
}

// PaperCheckResult is the aggregate root for one checked abstract. The
// per-statement lists are index-aligned: Statements[i] produced
// CounterStatements[i], SearchResults[i], ScoredDocuments[i],
// CounterReports[i], and Verdicts[i].
type PaperCheckResult struct {
	ID                int64              `json:"id,omitempty"` // Assigned on save
	AbstractText      string             `json:"abstract_text"`
	Source            SourceMeta         `json:"source_metadata"`
	Statements        []Statement        `json:"statements"`
	CounterStatements []CounterStatement `json:"counter_statements"`
	SearchResults     []SearchResults    `json:"search_results"`
	ScoredDocuments   [][]ScoredDocument `json:"scored_documents"`
	CounterReports    []CounterReport    `json:"counter_reports"`
	Verdicts          []Verdict          `json:"verdicts"`
	OverallAssessment string             `json:"overall_assessment"`
	Processing        ProcessingMeta     `json:"processing_metadata"`
	CreatedAt         time.Time          `json:"created_at,omitempty"`
}

// VerdictCounts tallies verdicts across statements
func (r *PaperCheckResult) VerdictCounts() (supports, contradicts, undecided int) {
	for _, v := range r.Verdicts {
		switch v.Value {
		case VerdictSupports:
			supports++
		case VerdictContradicts:
			contradicts++
		default:
			undecided++
		}
	}
	return
}
