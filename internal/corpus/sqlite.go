package corpus

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/refutelab/refute/internal/model"
)

// SQLiteStore implements Store on a single SQLite database. Keyword
// search uses an FTS5 index kept in sync by triggers; vector search scans
// stored embedding BLOBs and ranks by cosine similarity.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the corpus database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating corpus schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL,
			authors TEXT,
			journal TEXT,
			year INTEGER,
			pmid TEXT,
			doi TEXT,
			embedding BLOB
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE documents_fts USING fts5(title, abstract, content=documents, content_rowid=rowid)`,
			`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
				INSERT INTO documents_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO documents_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// AddDocument upserts a document and its embedding
func (s *SQLiteStore) AddDocument(ctx context.Context, doc model.Document, embedding []float32) error {
	if doc.ID == "" {
		return fmt.Errorf("document has no id")
	}

	authorsJSON, _ := json.Marshal(doc.Authors)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, abstract, authors, journal, year, pmid, doi, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, authors=excluded.authors,
			journal=excluded.journal, year=excluded.year, pmid=excluded.pmid,
			doi=excluded.doi, embedding=excluded.embedding`,
		doc.ID, doc.Title, doc.Abstract, string(authorsJSON),
		doc.Journal, doc.Year, doc.PMID, doc.DOI, encodeEmbedding(embedding),
	)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}

	return nil
}

// GetDocument returns the full record for a document id
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (model.Document, error) {
	var (
		doc         model.Document
		authorsJSON sql.NullString
		year        sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, abstract, authors, journal, year, pmid, doi FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Abstract, &authorsJSON, &doc.Journal, &year, &doc.PMID, &doc.DOI)

	if err == sql.ErrNoRows {
		return model.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("looking up document %s: %w", id, err)
	}

	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &doc.Authors)
	}
	if year.Valid {
		doc.Year = int(year.Int64)
	}

	return doc, nil
}

// VectorSearch ranks all stored documents by cosine similarity
func (s *SQLiteStore) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]model.RankedDoc, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM documents WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var ranked []model.RankedDoc
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}

		docVec := decodeEmbedding(blob)
		if len(docVec) != len(embedding) {
			// Mixed embedding models; incomparable vector
			continue
		}

		ranked = append(ranked, model.RankedDoc{
			DocID: id,
			Score: cosineSimilarity(embedding, docVec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

// KeywordSearch runs an OR-joined FTS5 query over titles and abstracts.
// OR semantics favor recall: counter-evidence search wants breadth.
func (s *SQLiteStore) KeywordSearch(ctx context.Context, query string, limit int) ([]model.RankedDoc, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty keyword query")
	}
	if limit <= 0 {
		limit = 20
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	ftsQuery := strings.Join(quoted, " OR ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, documents_fts.rank
		 FROM documents_fts
		 JOIN documents d ON d.rowid = documents_fts.rowid
		 WHERE documents_fts MATCH ?
		 ORDER BY documents_fts.rank
		 LIMIT ?`,
		ftsQuery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	defer rows.Close()

	var ranked []model.RankedDoc
	for rows.Next() {
		var (
			id   string
			rank float64
		)
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("scanning keyword row: %w", err)
		}
		// FTS5 rank is a negative bm25 value; better matches are more negative
		ranked = append(ranked, model.RankedDoc{DocID: id, Score: -rank})
	}

	return ranked, rows.Err()
}

// Count returns the number of corpus documents
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// encodeEmbedding packs a float32 vector as little-endian bytes
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks little-endian bytes into a float32 vector
func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

// cosineSimilarity computes the cosine of the angle between two vectors
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
