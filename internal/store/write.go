package store

import (
	"context"
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// Run is the summary row of one harness run.
type Run struct {
	ID             string `json:"id"`
	Scenario       string `json:"scenario"`
	Timeline       string `json:"timeline"`
	TimelineDigest string `json:"timeline_digest"`
	TraceDigest    string `json:"trace_digest"`
	Passed         bool   `json:"passed"`
	Frames         int64  `json:"frames"`
	Dispatches     int    `json:"dispatches"`
	EngineVersion  string `json:"engine_version"`
	IRVersion      string `json:"ir_version"`
}

// WriteRun stores a run and its trace in one transaction. If run.ID is
// empty a UUIDv7 is assigned; the id used is returned. The trace digest is
// computed from events, and version fields default to the current ones.
func (s *Store) WriteRun(ctx context.Context, run Run, events []ir.TraceEvent) (string, error) {
	if run.ID == "" {
		run.ID = UUIDv7Generator{}.Generate()
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.IRVersion
	}
	digest, err := ir.TraceDigest(events)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	run.TraceDigest = digest

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, timeline, timeline_digest, trace_digest, passed, frames, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		run.Timeline,
		run.TimelineDigest,
		run.TraceDigest,
		boolToInt(run.Passed),
		run.Frames,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dispatches
		(run_id, seq, frame, timeline, idx, name, event, ticks, external, handle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write run: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			run.ID, e.Seq, e.Frame, e.Timeline, e.Index, e.Name, e.Event, e.Ticks,
			boolToInt(e.External), e.Handle,
		); err != nil {
			return "", fmt.Errorf("write dispatch %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: commit: %w", err)
	}
	return run.ID, nil
}

// DeleteRun removes a run and its dispatches.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
