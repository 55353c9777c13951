package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ecosoul/internal/wire"
)

// ErrNotFound is returned when a cycle does not exist.
var ErrNotFound = errors.New("not found")

const cycleColumns = `
	id, seq, activity, kind, submission_id, hash, digest,
	outcome, error_code, error_message,
	identifier, eco_score, cumulative_score, finished_seq`

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (Cycle, error) {
	var (
		c                        Cycle
		ident, score, finishedAt sql.NullInt64
	)
	err := row.Scan(
		&c.ID, &c.Seq, &c.Activity, &c.Kind, &c.SubmissionID, &c.Hash, &c.Digest,
		&c.Outcome, &c.ErrorCode, &c.ErrorMessage,
		&ident, &score, &c.CumulativeScore, &finishedAt,
	)
	if err != nil {
		return Cycle{}, err
	}
	c.Identifier = nullable(ident)
	c.EcoScore = nullable(score)
	c.FinishedSeq = nullable(finishedAt)
	return c, nil
}

func nullable(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// ReadCycle returns one cycle by id.
func (s *Store) ReadCycle(ctx context.Context, id string) (Cycle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE id = ?`, id)
	c, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Cycle{}, fmt.Errorf("read cycle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Cycle{}, fmt.Errorf("read cycle %s: %w", id, err)
	}
	return c, nil
}

// ListCycles returns every cycle of the session in seq order.
func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cycleColumns+` FROM cycles ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("list cycles: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest seq the journal holds, or 0 when it is empty.
// A new session resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM transitions), 0),
			COALESCE((SELECT MAX(seq) FROM cycles), 0),
			COALESCE((SELECT MAX(finished_seq) FROM cycles), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadTransitions returns the transitions of one cycle in seq order.
func (s *Store) ReadTransitions(ctx context.Context, cycleID string) ([]Transition, error) {
	return s.queryTransitions(ctx, `
		SELECT seq, cycle_id, from_phase, to_phase, detail
		FROM transitions WHERE cycle_id = ? ORDER BY seq ASC
	`, cycleID)
}

// AllTransitions returns every transition of the session in seq order.
func (s *Store) AllTransitions(ctx context.Context) ([]Transition, error) {
	return s.queryTransitions(ctx, `
		SELECT seq, cycle_id, from_phase, to_phase, detail
		FROM transitions ORDER BY seq ASC
	`)
}

func (s *Store) queryTransitions(ctx context.Context, query string, args ...any) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			t      Transition
			detail string
		)
		if err := rows.Scan(&t.Seq, &t.CycleID, &t.From, &t.To, &detail); err != nil {
			return nil, fmt.Errorf("read transitions: scan: %w", err)
		}
		t.Detail, err = decodeDetail(detail)
		if err != nil {
			return nil, fmt.Errorf("read transitions: seq %d: %w", t.Seq, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	return out, nil
}

// decodeDetail parses stored canonical JSON. Numbers come back as int64 so
// the detail can be re-encoded canonically.
func decodeDetail(data string) (wire.Object, error) {
	if data == "" || data == "{}" {
		return wire.Object{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode detail: %w", err)
	}
	v, err := fromJSON(raw)
	if err != nil {
		return nil, err
	}
	return v.(wire.Object), nil
}

func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return n, nil
	case map[string]any:
		obj := make(wire.Object, len(val))
		for k, elem := range val {
			conv, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			conv, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("null in detail")
	default:
		return val, nil
	}
}

// Query runs a read-only query against the journal. Scenario assertions use
// it to inspect the cycles table.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}
