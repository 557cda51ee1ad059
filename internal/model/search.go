package model

// Strategy identifies a retrieval strategy
type Strategy string

const (
	StrategySemantic Strategy = "semantic" // Embedding of the negated text
	StrategyHyde     Strategy = "hyde"     // Embeddings of hypothetical abstracts
	StrategyKeyword  Strategy = "keyword"  // Full-text keyword query
)

// RankedDoc is one entry in a ranked retrieval list
type RankedDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"` // Strategy-native score, not comparable across strategies
}

// SearchMeta records per-strategy diagnostics for a search run
type SearchMeta struct {
	QueriesRun     int                 `json:"queries_run"`
	StrategyErrors map[Strategy]string `json:"strategy_errors,omitempty"` // Degraded strategies and why
	ShortCircuited bool                `json:"short_circuited,omitempty"` // Stop-on-first-hit was taken
}

// SearchResults holds the raw per-strategy lists and the fused candidate
// set for one counter-statement. Fused preserves reciprocal-rank-fusion
// order; every id in Fused appears in at least one strategy list and in
// Provenance.
type SearchResults struct {
	SemanticDocs []RankedDoc             `json:"semantic_docs"`
	HydeDocs     []RankedDoc             `json:"hyde_docs"` // First occurrence across hyde query lists
	KeywordDocs  []RankedDoc             `json:"keyword_docs"`
	Fused        []string                `json:"deduplicated_docs"` // Insertion order = fused rank order
	Provenance   map[string][]Strategy   `json:"provenance"`
	Meta         SearchMeta              `json:"search_metadata"`
}

// Empty reports whether no strategy returned any candidate
func (r SearchResults) Empty() bool {
	return len(r.Fused) == 0
}
