package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/refutelab/refute/internal/model"
)

// GetResultByID reconstructs a complete PaperCheckResult from the audit
// trail. The per-statement lists come back index-aligned in statement
// order, matching what SaveCompleteResult was given.
func (s *Store) GetResultByID(ctx context.Context, id int64) (*model.PaperCheckResult, error) {
	var (
		result         model.PaperCheckResult
		sourceJSON     sql.NullString
		processingJSON sql.NullString
		createdAt      string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, abstract, source_meta, overall_assessment, processing_meta, created_at
		 FROM results WHERE id = ?`, id,
	).Scan(&result.ID, &result.AbstractText, &sourceJSON, &result.OverallAssessment, &processingJSON, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up result %d: %w", id, err)
	}

	if sourceJSON.Valid {
		json.Unmarshal([]byte(sourceJSON.String), &result.Source)
	}
	if processingJSON.Valid {
		json.Unmarshal([]byte(processingJSON.String), &result.Processing)
	}
	if t, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		result.CreatedAt = t
	}

	if err := s.loadStatements(ctx, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Store) loadStatements(ctx context.Context, result *model.PaperCheckResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ord, text, context, type, confidence FROM statements WHERE result_id = ? ORDER BY ord`,
		result.ID,
	)
	if err != nil {
		return fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	var stmtIDs []int64
	for rows.Next() {
		var (
			stmtID   int64
			stmt     model.Statement
			stmtType string
		)
		if err := rows.Scan(&stmtID, &stmt.Order, &stmt.Text, &stmt.Context, &stmtType, &stmt.Confidence); err != nil {
			return fmt.Errorf("scanning statement: %w", err)
		}
		stmt.Type = model.StatementType(stmtType)

		stmtIDs = append(stmtIDs, stmtID)
		result.Statements = append(result.Statements, stmt)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i, stmtID := range stmtIDs {
		if err := s.loadStatementChildren(ctx, result, i, stmtID); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) loadStatementChildren(ctx context.Context, result *model.PaperCheckResult, idx int, stmtID int64) error {
	cs := model.CounterStatement{Statement: result.Statements[idx]}
	var (
		csID           int64
		hydeJSON       sql.NullString
		keywordsJSON   sql.NullString
		metaJSON       sql.NullString
		searchMetaJSON sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, negated_text, hyde_abstracts, keywords, meta, search_meta
		 FROM counter_statements WHERE statement_id = ?`, stmtID,
	).Scan(&csID, &cs.NegatedText, &hydeJSON, &keywordsJSON, &metaJSON, &searchMetaJSON)
	if err != nil {
		return fmt.Errorf("querying counter statement: %w", err)
	}

	if hydeJSON.Valid {
		json.Unmarshal([]byte(hydeJSON.String), &cs.HydeAbstracts)
	}
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &cs.Keywords)
	}
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &cs.Meta)
	}

	sr, err := s.loadSearchResults(ctx, csID)
	if err != nil {
		return err
	}
	if searchMetaJSON.Valid {
		json.Unmarshal([]byte(searchMetaJSON.String), &sr.Meta)
	}

	scored, err := s.loadScoredDocuments(ctx, csID)
	if err != nil {
		return err
	}

	report, err := s.loadCounterReport(ctx, csID)
	if err != nil {
		return err
	}

	verdict, err := s.loadVerdict(ctx, stmtID)
	if err != nil {
		return err
	}
	verdict.Report = report

	result.CounterStatements = append(result.CounterStatements, cs)
	result.SearchResults = append(result.SearchResults, sr)
	result.ScoredDocuments = append(result.ScoredDocuments, scored)
	result.CounterReports = append(result.CounterReports, report)
	result.Verdicts = append(result.Verdicts, verdict)

	return nil
}

func (s *Store) loadSearchResults(ctx context.Context, csID int64) (model.SearchResults, error) {
	sr := model.SearchResults{Provenance: make(map[string][]model.Strategy)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, strategy, score, fused_rank
		 FROM search_results WHERE counter_statement_id = ? ORDER BY strategy, rank`, csID,
	)
	if err != nil {
		return sr, fmt.Errorf("querying search results: %w", err)
	}
	defer rows.Close()

	fusedRank := make(map[string]int)
	for rows.Next() {
		var (
			doc      model.RankedDoc
			strategy string
			fused    int
		)
		if err := rows.Scan(&doc.DocID, &strategy, &doc.Score, &fused); err != nil {
			return sr, fmt.Errorf("scanning search result: %w", err)
		}

		st := model.Strategy(strategy)
		switch st {
		case model.StrategySemantic:
			sr.SemanticDocs = append(sr.SemanticDocs, doc)
		case model.StrategyHyde:
			sr.HydeDocs = append(sr.HydeDocs, doc)
		case model.StrategyKeyword:
			sr.KeywordDocs = append(sr.KeywordDocs, doc)
		}

		if !containsStrategy(sr.Provenance[doc.DocID], st) {
			sr.Provenance[doc.DocID] = append(sr.Provenance[doc.DocID], st)
		}
		if fused > 0 {
			fusedRank[doc.DocID] = fused
		}
	}
	if err := rows.Err(); err != nil {
		return sr, err
	}

	sr.Fused = make([]string, len(fusedRank))
	for id, rank := range fusedRank {
		sr.Fused[rank-1] = id
	}
	if len(sr.Provenance) == 0 {
		sr.Provenance = nil
	}

	return sr, nil
}

func (s *Store) loadScoredDocuments(ctx context.Context, csID int64) ([]model.ScoredDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, title, abstract, authors, journal, year, pmid, doi, score, explanation, supports_counter, found_by
		 FROM scored_documents WHERE counter_statement_id = ? ORDER BY ord`, csID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying scored documents: %w", err)
	}
	defer rows.Close()

	var scored []model.ScoredDocument
	for rows.Next() {
		var (
			sd          model.ScoredDocument
			authorsJSON sql.NullString
			foundBy     sql.NullString
			supports    int
		)
		if err := rows.Scan(
			&sd.DocID, &sd.Document.Title, &sd.Document.Abstract, &authorsJSON,
			&sd.Document.Journal, &sd.Document.Year, &sd.Document.PMID, &sd.Document.DOI,
			&sd.Score, &sd.Explanation, &supports, &foundBy,
		); err != nil {
			return nil, fmt.Errorf("scanning scored document: %w", err)
		}

		sd.Document.ID = sd.DocID
		sd.SupportsCounter = supports != 0
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &sd.Document.Authors)
		}
		if foundBy.Valid {
			json.Unmarshal([]byte(foundBy.String), &sd.FoundBy)
		}

		scored = append(scored, sd)
	}

	return scored, rows.Err()
}

func (s *Store) loadCounterReport(ctx context.Context, csID int64) (model.CounterReport, error) {
	var (
		report   model.CounterReport
		reportID int64
		fallback int
		metaJSON sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, summary, num_citations, docs_found, docs_scored, docs_cited, fallback, meta
		 FROM counter_reports WHERE counter_statement_id = ?`, csID,
	).Scan(&reportID, &report.Summary, &report.NumCitations,
		&report.Stats.DocsFound, &report.Stats.DocsScored, &report.Stats.DocsCited,
		&fallback, &metaJSON)
	if err != nil {
		return report, fmt.Errorf("querying counter report: %w", err)
	}

	report.Fallback = fallback != 0
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &report.Meta)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ord, doc_id, passage, relevance_score, full_citation, meta
		 FROM citations WHERE report_id = ? ORDER BY ord`, reportID,
	)
	if err != nil {
		return report, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       model.ExtractedCitation
			citMeta sql.NullString
		)
		if err := rows.Scan(&c.Order, &c.DocID, &c.Passage, &c.RelevanceScore, &c.FullCitation, &citMeta); err != nil {
			return report, fmt.Errorf("scanning citation: %w", err)
		}
		if citMeta.Valid {
			json.Unmarshal([]byte(citMeta.String), &c.Meta)
		}
		report.Citations = append(report.Citations, c)
	}

	return report, rows.Err()
}

func (s *Store) loadVerdict(ctx context.Context, stmtID int64) (model.Verdict, error) {
	var (
		v          model.Verdict
		value      string
		confidence string
		metaJSON   sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT verdict, rationale, confidence, meta FROM verdicts WHERE statement_id = ?`, stmtID,
	).Scan(&value, &v.Rationale, &confidence, &metaJSON)
	if err != nil {
		return v, fmt.Errorf("querying verdict: %w", err)
	}

	v.Value = model.VerdictValue(value)
	v.Confidence = model.ConfidenceLevel(confidence)
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &v.Meta)
	}

	return v, nil
}

// GetResultsBySourceIdentifier returns all results recorded for a source
// identifier (PMID, DOI, or caller-chosen id), newest first.
func (s *Store) GetResultsBySourceIdentifier(ctx context.Context, identifier string) ([]*model.PaperCheckResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM results WHERE source_identifier = ? ORDER BY created_at DESC`, identifier,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results by source: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]*model.PaperCheckResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.GetResultByID(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// ResultSummary is one row of a result listing
type ResultSummary struct {
	ID               int64     `json:"id"`
	SourceIdentifier string    `json:"source_identifier,omitempty"`
	SourceTitle      string    `json:"source_title,omitempty"`
	NumStatements    int       `json:"num_statements"`
	Supports         int       `json:"supports"`
	Contradicts      int       `json:"contradicts"`
	Undecided        int       `json:"undecided"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListRecent returns result summaries, newest first
func (s *Store) ListRecent(ctx context.Context, limit, offset int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source_identifier, r.source_meta, r.created_at,
			(SELECT count(*) FROM statements st WHERE st.result_id = r.id),
			(SELECT count(*) FROM verdicts v JOIN statements st ON v.statement_id = st.id
				WHERE st.result_id = r.id AND v.verdict = 'supports'),
			(SELECT count(*) FROM verdicts v JOIN statements st ON v.statement_id = st.id
				WHERE st.result_id = r.id AND v.verdict = 'contradicts'),
			(SELECT count(*) FROM verdicts v JOIN statements st ON v.statement_id = st.id
				WHERE st.result_id = r.id AND v.verdict = 'undecided')
		 FROM results r ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var summaries []ResultSummary
	for rows.Next() {
		var (
			sum        ResultSummary
			identifier sql.NullString
			sourceJSON sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&sum.ID, &identifier, &sourceJSON, &createdAt,
			&sum.NumStatements, &sum.Supports, &sum.Contradicts, &sum.Undecided); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}

		if identifier.Valid {
			sum.SourceIdentifier = identifier.String
		}
		if sourceJSON.Valid {
			var src model.SourceMeta
			if json.Unmarshal([]byte(sourceJSON.String), &src) == nil {
				sum.SourceTitle = src.Title
			}
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			sum.CreatedAt = t
		}

		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Statistics aggregates the audit trail
type Statistics struct {
	TotalResults    int `json:"total_results"`
	TotalStatements int `json:"total_statements"`
	TotalCitations  int `json:"total_citations"`
	Supports        int `json:"supports"`
	Contradicts     int `json:"contradicts"`
	Undecided       int `json:"undecided"`
}

// GetStatistics returns counts across all persisted results
func (s *Store) GetStatistics(ctx context.Context) (Statistics, error) {
	var stats Statistics

	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT count(*) FROM results`, &stats.TotalResults},
		{`SELECT count(*) FROM statements`, &stats.TotalStatements},
		{`SELECT count(*) FROM citations`, &stats.TotalCitations},
		{`SELECT count(*) FROM verdicts WHERE verdict = 'supports'`, &stats.Supports},
		{`SELECT count(*) FROM verdicts WHERE verdict = 'contradicts'`, &stats.Contradicts},
		{`SELECT count(*) FROM verdicts WHERE verdict = 'undecided'`, &stats.Undecided},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return stats, fmt.Errorf("statistics query: %w", err)
		}
	}

	return stats, nil
}

func containsStrategy(list []model.Strategy, s model.Strategy) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
