// Package corpus exposes the literature corpus as a queryable store:
// exact lookup by identifier, vector-similarity search, and keyword
// full-text search. Ingestion and indexing machinery live elsewhere;
// only a minimal document loader is provided for fixtures.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/refutelab/refute/internal/model"
)

// ErrNotFound is returned when a document id has no corpus record
var ErrNotFound = errors.New("document not found")

// Store defines the queryable corpus contract
type Store interface {
	// GetDocument returns the full record for a document id
	GetDocument(ctx context.Context, id string) (model.Document, error)

	// VectorSearch returns up to limit documents ranked by similarity to
	// the embedding
	VectorSearch(ctx context.Context, embedding []float32, limit int) ([]model.RankedDoc, error)

	// KeywordSearch returns up to limit documents ranked by full-text
	// relevance to the query
	KeywordSearch(ctx context.Context, query string, limit int) ([]model.RankedDoc, error)
}

// ReadDocumentsFile loads corpus documents from a YAML file. Each entry
// carries the bibliographic fields of model.Document.
func ReadDocumentsFile(path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documents file: %w", err)
	}

	var docs []model.Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse documents file: %w", err)
	}

	for i, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("document %d has no id", i)
		}
	}

	return docs, nil
}
