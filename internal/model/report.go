package model

// SearchStats summarizes how many documents each pipeline stage retained
type SearchStats struct {
	DocsFound  int `json:"docs_found"`  // Fused candidate count
	DocsScored int `json:"docs_scored"` // Candidates that scored at or above threshold
	DocsCited  int `json:"docs_cited"`  // Citations extracted
}

// CounterReport is the synthesized counter-evidence prose for one
// counter-statement, plus its citations and retrieval statistics.
type CounterReport struct {
	Summary      string              `json:"summary"`
	NumCitations int                 `json:"num_citations"`
	Citations    []ExtractedCitation `json:"citations"`
	Stats        SearchStats         `json:"search_stats"`
	Fallback     bool                `json:"fallback,omitempty"` // Templated summary, synthesis call failed
	Meta         GenerationMeta      `json:"generation_metadata"`
}
