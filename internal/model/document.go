package model

// Document is a denormalized snapshot of a corpus record
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Year     int      `json:"year,omitempty"`
	PMID     string   `json:"pmid,omitempty"`
	DOI      string   `json:"doi,omitempty"`
}

// ScoredDocument is a candidate document rated for relevance to a
// counter-statement. Only documents at or above the scoring threshold
// survive into the citation stage, so SupportsCounter is true for every
// record the scorer emits.
type ScoredDocument struct {
	DocID           string     `json:"doc_id"`
	Document        Document   `json:"document"`
	Score           int        `json:"score"` // Integer in [1,5]
	Explanation     string     `json:"explanation"`
	SupportsCounter bool       `json:"supports_counter"`
	FoundBy         []Strategy `json:"found_by"` // Copied from search provenance
}
