package store

import (
	"context"
	"fmt"

	"github.com/roach88/ecosoul/internal/wire"
)

// BeginCycle inserts a running cycle. Duplicate ids are ignored so a
// retried write is harmless.
func (s *Store) BeginCycle(ctx context.Context, c Cycle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (id, seq, activity, kind, outcome)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, c.ID, c.Seq, c.Activity, c.Kind, OutcomeRunning)
	if err != nil {
		return fmt.Errorf("begin cycle %s: %w", c.ID, err)
	}
	return nil
}

// RecordSubmission attaches the submitted handle to a running cycle.
func (s *Store) RecordSubmission(ctx context.Context, cycleID, submissionID, hash, digest string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cycles SET submission_id = ?, hash = ?, digest = ?
		WHERE id = ?
	`, submissionID, hash, digest, cycleID)
	if err != nil {
		return fmt.Errorf("record submission %s: %w", cycleID, err)
	}
	return requireRow(res, "record submission", cycleID)
}

// FinishCycle stores a cycle's terminal outcome.
func (s *Store) FinishCycle(ctx context.Context, c Cycle) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cycles SET
			outcome = ?, error_code = ?, error_message = ?,
			identifier = ?, eco_score = ?, cumulative_score = ?, finished_seq = ?
		WHERE id = ?
	`,
		c.Outcome, c.ErrorCode, c.ErrorMessage,
		c.Identifier, c.EcoScore, c.CumulativeScore, c.FinishedSeq,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("finish cycle %s: %w", c.ID, err)
	}
	return requireRow(res, "finish cycle", c.ID)
}

// AppendTransition records a phase change. The cycle must exist.
func (s *Store) AppendTransition(ctx context.Context, t Transition) error {
	detail := t.Detail
	if detail == nil {
		detail = wire.Object{}
	}
	data, err := wire.Marshal(detail)
	if err != nil {
		return fmt.Errorf("append transition %d: %w", t.Seq, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transitions (seq, cycle_id, from_phase, to_phase, detail)
		VALUES (?, ?, ?, ?, ?)
	`, t.Seq, t.CycleID, t.From, t.To, string(data))
	if err != nil {
		return fmt.Errorf("append transition %d: %w", t.Seq, err)
	}
	return nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffected, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}
