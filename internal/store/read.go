package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	r.id, r.scenario, r.timeline, r.timeline_digest, r.trace_digest,
	r.passed, r.frames, r.engine_version, r.ir_version,
	(SELECT COUNT(*) FROM dispatches d WHERE d.run_id = r.id)
`

// ListRuns returns every stored run, oldest first.
//
// Returns an empty slice (not nil) when there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run summary.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun returns the most recent run of a scenario.
func (s *Store) LatestRun(ctx context.Context, scenario string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`
		FROM runs r
		WHERE r.scenario = ?
		ORDER BY r.id COLLATE BINARY DESC
		LIMIT 1`, scenario)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run of %s: %w", scenario, ErrRunNotFound)
	}
	return run, err
}

// ReadTrace returns the dispatches of a run in sequence order. An unknown
// run yields ErrRunNotFound; a run without dispatches yields an empty slice.
func (s *Store) ReadTrace(ctx context.Context, id string) ([]ir.TraceEvent, error) {
	if _, err := s.ReadRun(ctx, id); err != nil {
		return nil, err
	}
	return s.queryTrace(ctx, `
		SELECT seq, frame, timeline, idx, name, event, ticks, external, handle
		FROM dispatches
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
}

// ReadIntervalTrace returns the dispatches a run delivered to one name.
func (s *Store) ReadIntervalTrace(ctx context.Context, id, name string) ([]ir.TraceEvent, error) {
	return s.queryTrace(ctx, `
		SELECT seq, frame, timeline, idx, name, event, ticks, external, handle
		FROM dispatches
		WHERE run_id = ? AND name = ?
		ORDER BY seq ASC
	`, id, name)
}

func (s *Store) queryTrace(ctx context.Context, query string, args ...any) ([]ir.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	events := []ir.TraceEvent{}
	for rows.Next() {
		var e ir.TraceEvent
		var external int
		if err := rows.Scan(&e.Seq, &e.Frame, &e.Timeline, &e.Index, &e.Name, &e.Event, &e.Ticks, &external, &e.Handle); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		e.External = external != 0
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var passed int
	err := row.Scan(
		&run.ID, &run.Scenario, &run.Timeline, &run.TimelineDigest, &run.TraceDigest,
		&passed, &run.Frames, &run.EngineVersion, &run.IRVersion, &run.Dispatches,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Passed = passed != 0
	return run, nil
}
