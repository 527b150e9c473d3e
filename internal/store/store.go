package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/tear/internal"
	"github.com/valpere/tear/internal/record"
)

type Store struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection; sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	s := newStore(db)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, sq: sq.StatementBuilder.RunWith(db)}
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		lang_pair TEXT NOT NULL,
		model TEXT NOT NULL,
		strategies TEXT NOT NULL,
		source_file TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pipeline_results (
		run_id TEXT NOT NULL,
		segment_id INTEGER NOT NULL,
		source TEXT NOT NULL,
		reference TEXT,
		hypothesis TEXT NOT NULL,
		correction TEXT NOT NULL,
		need_correction INTEGER NOT NULL,
		mqm_info TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, segment_id),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- translation_memory caches finished pipeline results per configuration
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		lang_pair TEXT NOT NULL,
		model TEXT NOT NULL,
		strategies TEXT NOT NULL,
		hypothesis TEXT NOT NULL,
		correction TEXT NOT NULL,
		need_correction INTEGER NOT NULL,
		mqm_info TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, lang_pair, model, strategies)
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON pipeline_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, lang_pair, model, strategies);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Run is one batch or interactive session.
type Run struct {
	ID         string
	LangPair   string
	Model      string
	Strategies string
	SourceFile string
	CreatedAt  time.Time
	Segments   int
	Corrected  int
}

// NewRun returns a run with a fresh ID.
func NewRun(langPair, model, strategies, sourceFile string) Run {
	return Run{
		ID:         uuid.New().String(),
		LangPair:   langPair,
		Model:      model,
		Strategies: strategies,
		SourceFile: sourceFile,
		CreatedAt:  time.Now(),
	}
}

// Filter narrows listings. Empty fields match everything.
type Filter struct {
	LangPair string
	Model    string
}

func (f Filter) where(prefix string) sq.And {
	var conds sq.And
	if f.LangPair != "" {
		conds = append(conds, sq.Eq{prefix + "lang_pair": f.LangPair})
	}
	if f.Model != "" {
		conds = append(conds, sq.Eq{prefix + "model": f.Model})
	}
	return conds
}

func (s *Store) SaveRun(ctx context.Context, run Run) error {
	_, err := s.sq.Insert("runs").
		Columns("id", "lang_pair", "model", "strategies", "source_file", "created_at").
		Values(run.ID, run.LangPair, run.Model, run.Strategies, run.SourceFile, run.CreatedAt).
		ExecContext(ctx)
	return err
}

// SaveResult stores one processed segment of a run. Re-saving a segment
// replaces it.
func (s *Store) SaveResult(ctx context.Context, runID string, rec record.Record) error {
	_, err := s.sq.Insert("pipeline_results").
		Options("OR REPLACE").
		Columns("run_id", "segment_id", "source", "reference", "hypothesis", "correction", "need_correction", "mqm_info").
		Values(runID, rec.ID, rec.Src, rec.Ref, rec.Hyp, rec.Cor, rec.NeedCorrection, rec.MQMInfo).
		ExecContext(ctx)
	return err
}

// ListResults returns the segments of a run ordered by segment id.
func (s *Store) ListResults(ctx context.Context, runID string) ([]record.Record, error) {
	rows, err := s.sq.Select("segment_id", "source", "COALESCE(reference, '')", "hypothesis", "correction", "need_correction", "COALESCE(mqm_info, '')").
		From("pipeline_results").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("segment_id").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []record.Record
	for rows.Next() {
		var r record.Record
		if err := rows.Scan(&r.ID, &r.Src, &r.Ref, &r.Hyp, &r.Cor, &r.NeedCorrection, &r.MQMInfo); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListRuns returns the runs matching f, newest first, with their segment
// counts.
func (s *Store) ListRuns(ctx context.Context, f Filter) ([]Run, error) {
	rows, err := s.sq.Select("r.id", "r.lang_pair", "r.model", "r.strategies", "COALESCE(r.source_file, '')", "r.created_at",
		"COUNT(p.segment_id)", "COALESCE(SUM(p.need_correction), 0)").
		From("runs r").
		LeftJoin("pipeline_results p ON p.run_id = r.id").
		Where(f.where("r.")).
		GroupBy("r.id").
		OrderBy("r.created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.LangPair, &r.Model, &r.Strategies, &r.SourceFile, &r.CreatedAt, &r.Segments, &r.Corrected); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// MemoryKey identifies a cached result. A result is only reused for the
// same source, language pair, model and strategies.
type MemoryKey struct {
	Source     string
	LangPair   string
	Model      string
	Strategies string
}

func (k MemoryKey) eq() sq.Eq {
	return sq.Eq{
		"source_text": normalizeText(k.Source),
		"lang_pair":   k.LangPair,
		"model":       k.Model,
		"strategies":  k.Strategies,
	}
}

// GetCached returns the cached result for key, if any. Invalidated entries
// are misses.
func (s *Store) GetCached(ctx context.Context, key MemoryKey) (*internal.Result, bool, error) {
	var (
		res         internal.Result
		needs       int
		invalidated bool
		lastUsed    time.Time
	)

	err := s.sq.Select("hypothesis", "correction", "need_correction", "COALESCE(mqm_info, '')", "invalidated", "last_used").
		From("translation_memory").
		Where(key.eq()).
		Limit(1).
		QueryRowContext(ctx).
		Scan(&res.Hypothesis, &res.Correction, &needs, &res.Report, &invalidated, &lastUsed)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if invalidated {
		return nil, false, nil
	}

	res.Source = strings.TrimSpace(key.Source)
	res.NeedsCorrection = needs == 1
	res.Timestamp = lastUsed

	_, err = s.sq.Update("translation_memory").
		Set("usage_count", sq.Expr("usage_count + 1")).
		Set("last_used", time.Now()).
		Where(key.eq()).
		ExecContext(ctx)

	return &res, true, err
}

// SaveToMemory caches res under key, replacing any previous entry.
func (s *Store) SaveToMemory(ctx context.Context, key MemoryKey, res *internal.Result) error {
	now := time.Now()
	_, err := s.sq.Insert("translation_memory").
		Options("OR REPLACE").
		Columns("id", "source_text", "lang_pair", "model", "strategies", "hypothesis", "correction",
			"need_correction", "mqm_info", "usage_count", "invalidated", "last_used", "created_at").
		Values(uuid.New().String(), normalizeText(key.Source), key.LangPair, key.Model, key.Strategies,
			res.Hypothesis, res.Correction, res.CorrectionFlag(), res.Report, 1, false, now, now).
		ExecContext(ctx)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	LangPair    string
	Model       string
	Strategies  string
	Correction  string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory and run history.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
	Runs           int
	Segments       int
	Corrected      int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.sq.Update("translation_memory").
		Set("invalidated", true).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.sq.Delete("translation_memory").Where(sq.Eq{"id": id}).ExecContext(ctx)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.sq.Delete("translation_memory").ExecContext(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns the entries matching f, most recently used first.
func (s *Store) ListMemory(ctx context.Context, f Filter) ([]MemoryEntry, error) {
	rows, err := s.sq.Select("id", "source_text", "lang_pair", "model", "strategies", "correction", "usage_count", "invalidated", "last_used").
		From("translation_memory").
		Where(f.where("")).
		OrderBy("last_used DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.LangPair, &e.Model, &e.Strategies, &e.Correction, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory and runs.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM runs),
			COUNT(*),
			COALESCE(SUM(need_correction), 0)
		FROM pipeline_results`).Scan(&stats.Runs, &stats.Segments, &stats.Corrected)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
