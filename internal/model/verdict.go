package model

// VerdictValue is the closed set of possible verdicts
type VerdictValue string

const (
	VerdictSupports    VerdictValue = "supports"    // Literature supports the original claim
	VerdictContradicts VerdictValue = "contradicts" // Counter-evidence outweighs the claim
	VerdictUndecided   VerdictValue = "undecided"   // Evidence insufficient either way
)

// ValidVerdict reports whether v is one of the three permitted literals
func ValidVerdict(v VerdictValue) bool {
	switch v {
	case VerdictSupports, VerdictContradicts, VerdictUndecided:
		return true
	}
	return false
}

// ConfidenceLevel is the model-assigned confidence in a verdict. It is an
// opaque three-level enum; no numeric semantics beyond the ordering.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ValidConfidence reports whether c is a recognized confidence level
func ValidConfidence(c ConfidenceLevel) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Verdict is the final classification of a statement against its
// retrieved counter-evidence
type Verdict struct {
	Value      VerdictValue    `json:"verdict"`
	Rationale  string          `json:"rationale"` // 2-3 sentences
	Confidence ConfidenceLevel `json:"confidence"`
	Report     CounterReport   `json:"counter_report"`
	Meta       GenerationMeta  `json:"analysis_metadata"`
}
