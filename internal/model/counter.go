package model

import "time"

// GenerationMeta records which model produced a generated artifact
type GenerationMeta struct {
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// CounterStatement is the negated form of a Statement together with the
// hypothetical abstracts and keywords used to seed the evidence search.
// It is created once by the generator and never mutated.
type CounterStatement struct {
	Statement     Statement      `json:"statement"`      // The claim being countered
	NegatedText   string         `json:"negated_text"`   // Contrary claim preserving domain terms
	HydeAbstracts []string       `json:"hyde_abstracts"` // Generated hypothetical abstracts
	Keywords      []string       `json:"keywords"`       // Extracted search terms
	Meta          GenerationMeta `json:"generation_metadata"`
}
