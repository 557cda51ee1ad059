// Package store persists the complete audit trail of checked abstracts
// in a relational schema. Every child table is foreign-keyed to its
// parent with cascading delete, so removing a root record removes every
// descendant.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/refutelab/refute/internal/model"
)

// Store manages the audit-trail SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the audit-trail database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			abstract TEXT NOT NULL,
			source_identifier TEXT,
			source_meta TEXT,
			overall_assessment TEXT,
			processing_meta TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_source ON results(source_identifier)`,
		`CREATE TABLE IF NOT EXISTS statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			result_id INTEGER NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			text TEXT NOT NULL,
			context TEXT,
			type TEXT,
			confidence REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_result ON statements(result_id)`,
		`CREATE TABLE IF NOT EXISTS counter_statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			statement_id INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
			negated_text TEXT,
			hyde_abstracts TEXT,
			keywords TEXT,
			meta TEXT,
			search_meta TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_counter_statements_statement ON counter_statements(statement_id)`,
		`CREATE TABLE IF NOT EXISTS search_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			counter_statement_id INTEGER NOT NULL REFERENCES counter_statements(id) ON DELETE CASCADE,
			doc_id TEXT NOT NULL,
			strategy TEXT NOT NULL,
			rank INTEGER NOT NULL,
			score REAL,
			fused_rank INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_results_cs ON search_results(counter_statement_id)`,
		`CREATE TABLE IF NOT EXISTS scored_documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			counter_statement_id INTEGER NOT NULL REFERENCES counter_statements(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			doc_id TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			journal TEXT,
			year INTEGER,
			pmid TEXT,
			doi TEXT,
			score INTEGER NOT NULL,
			explanation TEXT,
			supports_counter INTEGER NOT NULL,
			found_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scored_documents_cs ON scored_documents(counter_statement_id)`,
		`CREATE TABLE IF NOT EXISTS counter_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			counter_statement_id INTEGER NOT NULL REFERENCES counter_statements(id) ON DELETE CASCADE,
			summary TEXT,
			num_citations INTEGER NOT NULL,
			docs_found INTEGER,
			docs_scored INTEGER,
			docs_cited INTEGER,
			fallback INTEGER NOT NULL DEFAULT 0,
			meta TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_counter_reports_cs ON counter_reports(counter_statement_id)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id INTEGER NOT NULL REFERENCES counter_reports(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			doc_id TEXT NOT NULL,
			passage TEXT,
			relevance_score INTEGER,
			full_citation TEXT,
			meta TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_report ON citations(report_id)`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			statement_id INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
			verdict TEXT NOT NULL,
			rationale TEXT,
			confidence TEXT,
			meta TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_statement ON verdicts(statement_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// SaveCompleteResult writes the full audit trail for one checked
// abstract in a single transaction and returns the root id. A crash
// mid-write cannot leave a root without its descendants.
func (s *Store) SaveCompleteResult(ctx context.Context, result *model.PaperCheckResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	sourceJSON, _ := json.Marshal(result.Source)
	processingJSON, _ := json.Marshal(result.Processing)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO results (abstract, source_identifier, source_meta, overall_assessment, processing_meta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.AbstractText, result.Source.Identifier, string(sourceJSON),
		result.OverallAssessment, string(processingJSON), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting result: %w", err)
	}

	rootID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result id: %w", err)
	}

	for i, stmt := range result.Statements {
		stmtID, err := s.saveStatement(ctx, tx, rootID, stmt)
		if err != nil {
			return 0, err
		}

		csID, err := s.saveCounterStatement(ctx, tx, stmtID, result.CounterStatements[i], result.SearchResults[i].Meta)
		if err != nil {
			return 0, err
		}

		if err := s.saveSearchResults(ctx, tx, csID, result.SearchResults[i]); err != nil {
			return 0, err
		}

		if err := s.saveScoredDocuments(ctx, tx, csID, result.ScoredDocuments[i]); err != nil {
			return 0, err
		}

		if err := s.saveCounterReport(ctx, tx, csID, result.CounterReports[i]); err != nil {
			return 0, err
		}

		if err := s.saveVerdict(ctx, tx, stmtID, result.Verdicts[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing result: %w", err)
	}

	result.ID = rootID
	result.CreatedAt = createdAt
	return rootID, nil
}

func (s *Store) saveStatement(ctx context.Context, tx *sql.Tx, rootID int64, stmt model.Statement) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO statements (result_id, ord, text, context, type, confidence) VALUES (?, ?, ?, ?, ?, ?)`,
		rootID, stmt.Order, stmt.Text, stmt.Context, string(stmt.Type), stmt.Confidence,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting statement %d: %w", stmt.Order, err)
	}
	return res.LastInsertId()
}

func (s *Store) saveCounterStatement(ctx context.Context, tx *sql.Tx, stmtID int64, cs model.CounterStatement, searchMeta model.SearchMeta) (int64, error) {
	hydeJSON, _ := json.Marshal(cs.HydeAbstracts)
	keywordsJSON, _ := json.Marshal(cs.Keywords)
	metaJSON, _ := json.Marshal(cs.Meta)
	searchMetaJSON, _ := json.Marshal(searchMeta)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO counter_statements (statement_id, negated_text, hyde_abstracts, keywords, meta, search_meta)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		stmtID, cs.NegatedText, string(hydeJSON), string(keywordsJSON), string(metaJSON), string(searchMetaJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting counter statement: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) saveSearchResults(ctx context.Context, tx *sql.Tx, csID int64, sr model.SearchResults) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO search_results (counter_statement_id, doc_id, strategy, rank, score, fused_rank)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing search result insert: %w", err)
	}
	defer stmt.Close()

	fusedRank := make(map[string]int, len(sr.Fused))
	for i, id := range sr.Fused {
		fusedRank[id] = i + 1
	}

	insert := func(strategy model.Strategy, list []model.RankedDoc) error {
		for rank, doc := range list {
			if _, err := stmt.ExecContext(ctx,
				csID, doc.DocID, string(strategy), rank+1, doc.Score, fusedRank[doc.DocID],
			); err != nil {
				return fmt.Errorf("inserting %s search result: %w", strategy, err)
			}
		}
		return nil
	}

	if err := insert(model.StrategySemantic, sr.SemanticDocs); err != nil {
		return err
	}
	if err := insert(model.StrategyHyde, sr.HydeDocs); err != nil {
		return err
	}
	return insert(model.StrategyKeyword, sr.KeywordDocs)
}

func (s *Store) saveScoredDocuments(ctx context.Context, tx *sql.Tx, csID int64, scored []model.ScoredDocument) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scored_documents (counter_statement_id, ord, doc_id, title, abstract, authors, journal, year, pmid, doi, score, explanation, supports_counter, found_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing scored document insert: %w", err)
	}
	defer stmt.Close()

	for i, sd := range scored {
		authorsJSON, _ := json.Marshal(sd.Document.Authors)
		foundByJSON, _ := json.Marshal(sd.FoundBy)

		if _, err := stmt.ExecContext(ctx,
			csID, i+1, sd.DocID, sd.Document.Title, sd.Document.Abstract,
			string(authorsJSON), sd.Document.Journal, sd.Document.Year,
			sd.Document.PMID, sd.Document.DOI,
			sd.Score, sd.Explanation, boolToInt(sd.SupportsCounter), string(foundByJSON),
		); err != nil {
			return fmt.Errorf("inserting scored document %s: %w", sd.DocID, err)
		}
	}

	return nil
}

func (s *Store) saveCounterReport(ctx context.Context, tx *sql.Tx, csID int64, report model.CounterReport) error {
	metaJSON, _ := json.Marshal(report.Meta)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO counter_reports (counter_statement_id, summary, num_citations, docs_found, docs_scored, docs_cited, fallback, meta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		csID, report.Summary, report.NumCitations,
		report.Stats.DocsFound, report.Stats.DocsScored, report.Stats.DocsCited,
		boolToInt(report.Fallback), string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting counter report: %w", err)
	}

	reportID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("counter report id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (report_id, ord, doc_id, passage, relevance_score, full_citation, meta)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing citation insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range report.Citations {
		citMetaJSON, _ := json.Marshal(c.Meta)
		if _, err := stmt.ExecContext(ctx,
			reportID, c.Order, c.DocID, c.Passage, c.RelevanceScore, c.FullCitation, string(citMetaJSON),
		); err != nil {
			return fmt.Errorf("inserting citation %d: %w", c.Order, err)
		}
	}

	return nil
}

func (s *Store) saveVerdict(ctx context.Context, tx *sql.Tx, stmtID int64, v model.Verdict) error {
	metaJSON, _ := json.Marshal(v.Meta)

	_, err := tx.ExecContext(ctx,
		`INSERT INTO verdicts (statement_id, verdict, rationale, confidence, meta) VALUES (?, ?, ?, ?, ?)`,
		stmtID, string(v.Value), v.Rationale, string(v.Confidence), string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting verdict: %w", err)
	}
	return nil
}

// DeleteResult removes a root record; cascade removes every descendant
func (s *Store) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting result %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("result %d not found", id)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
