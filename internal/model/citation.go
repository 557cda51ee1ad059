package model

// CitationMeta holds the bibliographic fields behind a formatted citation
type CitationMeta struct {
	PMID    string   `json:"pmid,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	Journal string   `json:"journal,omitempty"`
}

// ExtractedCitation is a verbatim supporting passage pulled from a
// high-scoring document, with a deterministic formatted reference.
// Order is stable and determines report appearance order.
type ExtractedCitation struct {
	DocID          string       `json:"doc_id"`
	Passage        string       `json:"passage"`
	RelevanceScore int          `json:"relevance_score"` // Copied from the ScoredDocument
	FullCitation   string       `json:"full_citation"`
	Meta           CitationMeta `json:"metadata"`
	Order          int          `json:"citation_order"` // 1-based
}
