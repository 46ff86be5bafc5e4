package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aipm/internal/analysis"
	"aipm/internal/logging"

	"github.com/google/uuid"
)

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// minPrefixLen is the shortest ID prefix Get accepts.
const minPrefixLen = 4

// Run is one persisted analysis of a document.
type Run struct {
	ID              string
	Document        string
	Catalog         string
	Model           string
	ParallelThreads int
	Duration        time.Duration
	CreatedAt       time.Time
	Report          analysis.Report
}

// RunSummary is a Run without its verdicts.
type RunSummary struct {
	ID        string
	Document  string
	Catalog   string
	Model     string
	Passed    int
	Total     int
	Duration  time.Duration
	CreatedAt time.Time
}

// Save stores run and returns its ID, generating one when run.ID is empty.
func (s *Store) Save(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, document, catalog, model, parallel_threads, passed, total, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Document, run.Catalog, run.Model, run.ParallelThreads,
		run.Report.Passed(), len(run.Report), run.Duration.Milliseconds(),
		run.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verdicts (run_id, rule_name, decision, justification) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare verdict insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range run.Report.Names() {
		v := run.Report[name]
		if _, err := stmt.ExecContext(ctx, run.ID, name, v.Decision, v.Justification); err != nil {
			return "", fmt.Errorf("failed to insert verdict %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	logging.Store("Saved run %s: %s (%s)", run.ID, run.Document, run.Report.Summary())
	return run.ID, nil
}

// List returns the most recent runs first. A limit of zero or less returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, document, catalog, model, passed, total, duration_ms, created_at
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum        RunSummary
			durationMS int64
			created    string
		)
		if err := rows.Scan(&sum.ID, &sum.Document, &sum.Catalog, &sum.Model,
			&sum.Passed, &sum.Total, &durationMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.Duration = time.Duration(durationMS) * time.Millisecond
		sum.CreatedAt = parseTime(created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a run with its verdicts. id may be a unique prefix of at least
// four characters.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: fullID, Report: analysis.Report{}}
	var (
		durationMS int64
		created    string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT document, catalog, model, parallel_threads, duration_ms, created_at FROM runs WHERE id = ?`, fullID).
		Scan(&run.Document, &run.Catalog, &run.Model, &run.ParallelThreads, &durationMS, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", fullID, err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.CreatedAt = parseTime(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_name, decision, justification FROM verdicts WHERE run_id = ?`, fullID)
	if err != nil {
		return nil, fmt.Errorf("failed to load verdicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v analysis.Verdict
		if err := rows.Scan(&v.RuleName, &v.Decision, &v.Justification); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		run.Report.Add(v)
	}
	return run, rows.Err()
}

// Delete removes a run and its verdicts. id may be a unique prefix, as for Get.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verdicts WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete verdicts: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE id = ?`, id).Scan(&found)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up run: %w", err)
	}
	if len(id) < minPrefixLen {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return "", fmt.Errorf("failed to look up run: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return "", err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		logging.StoreDebug("unparseable timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}
