// Package pipeline orchestrates the complete check of one abstract:
// statement extraction, counter-statement construction, retrieval,
// scoring, citation, synthesis, verdicts, and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/refutelab/refute/internal/cite"
	"github.com/refutelab/refute/internal/corpus"
	"github.com/refutelab/refute/internal/counter"
	"github.com/refutelab/refute/internal/extract"
	"github.com/refutelab/refute/internal/llm"
	"github.com/refutelab/refute/internal/model"
	"github.com/refutelab/refute/internal/score"
	"github.com/refutelab/refute/internal/search"
	"github.com/refutelab/refute/internal/store"
	"github.com/refutelab/refute/internal/verdict"
)

// ErrEmptyAbstract is returned when the input contains no text to check
var ErrEmptyAbstract = errors.New("abstract is empty")

// ErrNoStatements is returned when extraction finds nothing checkable
// and the configuration requires statements
var ErrNoStatements = errors.New("no checkable statements found")

// ProgressFunc receives step descriptions as the pipeline advances.
// fraction is in [0,1] and monotonically non-decreasing within a run.
type ProgressFunc func(step string, fraction float64)

// Pipeline runs the complete check for one abstract
type Pipeline struct {
	extractor   *extract.StatementExtractor
	generator   *counter.Generator
	coordinator *search.Coordinator
	scorer      *score.Scorer
	citer       *cite.Extractor
	synthesizer *cite.Synthesizer
	analyzer    *verdict.Analyzer
	store       *store.Store // Optional audit trail (nil disables persistence)
	config      *model.Config
	progress    ProgressFunc
}

// NewPipeline wires the stages together. auditStore may be nil, in which
// case results are not persisted.
func NewPipeline(cfg *model.Config, provider llm.Provider, corpusStore corpus.Store, auditStore *store.Store) *Pipeline {
	llmConfig := llm.ConfigFromModel(cfg.LLM)

	return &Pipeline{
		extractor:   extract.NewStatementExtractor(provider, cfg.Extraction.MaxStatements),
		generator:   counter.NewGenerator(provider, llmConfig, cfg.Hyde.NumDocs, cfg.Hyde.MaxKeywords),
		coordinator: search.NewCoordinator(corpusStore, provider, cfg.Search),
		scorer:      score.NewScorer(corpusStore, provider, cfg.Scoring),
		citer:       cite.NewExtractor(provider, cfg.Citation),
		synthesizer: cite.NewSynthesizer(provider, llmConfig, cfg.Citation.FallbackCitations),
		analyzer:    verdict.NewAnalyzer(provider, llmConfig),
		store:       auditStore,
		config:      cfg,
		progress:    nil,
	}
}

// OnProgress registers a progress callback
func (p *Pipeline) OnProgress(fn ProgressFunc) {
	p.progress = fn
}

func (p *Pipeline) report(step string, fraction float64) {
	if p.progress != nil {
		p.progress(step, fraction)
	}
}

// CheckAbstract runs the whole pipeline over one abstract. Stage
// failures degrade the affected statement rather than aborting the run;
// only empty input, failed extraction, and a failed save are fatal.
// The returned result's per-statement lists are index-aligned even for
// statements whose processing degraded.
func (p *Pipeline) CheckAbstract(ctx context.Context, abstract string, source model.SourceMeta) (*model.PaperCheckResult, error) {
	abstract = strings.TrimSpace(abstract)
	if abstract == "" {
		return nil, ErrEmptyAbstract
	}

	result := &model.PaperCheckResult{
		AbstractText: abstract,
		Source:       source,
		Processing: model.ProcessingMeta{
			Provider:  p.config.LLM.Provider,
			Model:     p.config.LLM.Model,
			StartedAt: time.Now().UTC(),
		},
	}

	p.report("extracting statements", 0)
	statements, err := p.extractor.Extract(ctx, abstract)
	if err != nil {
		return nil, fmt.Errorf("extract statements: %w", err)
	}
	if len(statements) == 0 {
		if p.config.Extraction.RequireStatements {
			return nil, ErrNoStatements
		}
		result.OverallAssessment = "No checkable statements were found in the abstract."
		result.Processing.FinishedAt = time.Now().UTC()
		return result, p.persist(ctx, result)
	}
	result.Statements = statements

	total := float64(len(statements))
	for i, stmt := range statements {
		base := float64(i) / total
		p.report(fmt.Sprintf("statement %d/%d", i+1, len(statements)), base)
		p.checkStatement(ctx, result, stmt, base, 1/total)
	}

	p.report("overall assessment", 0.95)
	result.OverallAssessment = p.analyzer.OverallAssessment(ctx, result.Statements, result.Verdicts)
	result.Processing.FinishedAt = time.Now().UTC()

	if err := p.persist(ctx, result); err != nil {
		return result, err
	}

	p.report("done", 1)
	return result, nil
}

// checkStatement runs counter-generation through verdict for a single
// statement and appends one entry to each of the result's aligned lists.
func (p *Pipeline) checkStatement(ctx context.Context, result *model.PaperCheckResult, stmt model.Statement, base, span float64) {
	cs, err := p.generator.Generate(ctx, stmt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: counter-statement for statement %d failed: %v\n", stmt.Order, err)
		p.degradeStatement(result, stmt, fmt.Sprintf("statement %d: counter-statement generation failed: %v", stmt.Order, err))
		return
	}

	p.report(fmt.Sprintf("searching for statement %d", stmt.Order), base+span*0.3)
	results, _ := p.coordinator.Search(ctx, cs)

	p.report(fmt.Sprintf("scoring for statement %d", stmt.Order), base+span*0.5)
	scored := p.scorer.Score(ctx, cs, results)

	p.report(fmt.Sprintf("citing for statement %d", stmt.Order), base+span*0.7)
	citations := p.citer.Extract(ctx, cs, scored)

	stats := model.SearchStats{
		DocsFound:  len(results.Fused),
		DocsScored: len(scored),
		DocsCited:  len(citations),
	}
	report := p.synthesizer.Synthesize(ctx, cs, citations, stats)

	p.report(fmt.Sprintf("verdict for statement %d", stmt.Order), base+span*0.9)
	v := p.analyzer.Analyze(ctx, stmt, report)

	result.CounterStatements = append(result.CounterStatements, cs)
	result.SearchResults = append(result.SearchResults, results)
	result.ScoredDocuments = append(result.ScoredDocuments, scored)
	result.CounterReports = append(result.CounterReports, report)
	result.Verdicts = append(result.Verdicts, v)

	for _, strategyErr := range results.Meta.StrategyErrors {
		result.Processing.Warnings = append(result.Processing.Warnings,
			fmt.Sprintf("statement %d: %s", stmt.Order, strategyErr))
	}
	if report.Fallback {
		result.Processing.Warnings = append(result.Processing.Warnings,
			fmt.Sprintf("statement %d: counter-report used templated fallback summary", stmt.Order))
	}
}

// degradeStatement records a statement whose counter-statement could not
// be built. The aligned lists still get one entry each so the result
// round-trips through the store intact.
func (p *Pipeline) degradeStatement(result *model.PaperCheckResult, stmt model.Statement, warning string) {
	report := model.CounterReport{
		Summary: "The statement could not be checked: no counter-statement was generated.",
	}

	result.CounterStatements = append(result.CounterStatements, model.CounterStatement{Statement: stmt})
	result.SearchResults = append(result.SearchResults, model.SearchResults{})
	result.ScoredDocuments = append(result.ScoredDocuments, nil)
	result.CounterReports = append(result.CounterReports, report)
	result.Verdicts = append(result.Verdicts, model.Verdict{
		Value:      model.VerdictUndecided,
		Confidence: model.ConfidenceLow,
		Rationale:  "Processing degraded before any evidence was gathered.",
		Report:     report,
	})
	result.Processing.Warnings = append(result.Processing.Warnings, warning)
}

func (p *Pipeline) persist(ctx context.Context, result *model.PaperCheckResult) error {
	if p.store == nil {
		return nil
	}
	if _, err := p.store.SaveCompleteResult(ctx, result); err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}
