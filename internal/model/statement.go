package model

// StatementType categorizes the nature of an extracted claim
type StatementType string

const (
	StatementHypothesis StatementType = "hypothesis" // Proposed but untested assertions
	StatementFinding    StatementType = "finding"    // Reported experimental results
	StatementConclusion StatementType = "conclusion" // Interpretations drawn by the authors
)

// ValidStatementType reports whether t is one of the recognized types
func ValidStatementType(t StatementType) bool {
	switch t {
	case StatementHypothesis, StatementFinding, StatementConclusion:
		return true
	}
	return false
}

// Statement represents a checkable claim extracted from an abstract
type Statement struct {
	Text       string        `json:"text"`       // The claim itself
	Context    string        `json:"context"`    // Surrounding sentence span
	Type       StatementType `json:"type"`       // hypothesis, finding, conclusion
	Confidence float64       `json:"confidence"` // Extraction confidence in [0,1]
	Order      int           `json:"order"`      // 1-based position in the abstract
}
