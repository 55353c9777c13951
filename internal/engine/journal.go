package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/ecosoul/internal/store"
)

// Journal records cycles and their transitions. *store.Store implements it.
type Journal interface {
	BeginCycle(ctx context.Context, c store.Cycle) error
	RecordSubmission(ctx context.Context, cycleID, submissionID, hash, digest string) error
	FinishCycle(ctx context.Context, c store.Cycle) error
	AppendTransition(ctx context.Context, t store.Transition) error
}

type nopJournal struct{}

func (nopJournal) BeginCycle(context.Context, store.Cycle) error { return nil }

func (nopJournal) RecordSubmission(context.Context, string, string, string, string) error {
	return nil
}

func (nopJournal) FinishCycle(context.Context, store.Cycle) error { return nil }

func (nopJournal) AppendTransition(context.Context, store.Transition) error { return nil }

// journalled logs journal write failures and continues. The view stays
// authoritative; a missing journal row never fails a cycle.
func journalled(op, cycleID string, err error) {
	if err != nil {
		slog.Error("journal write failed", "op", op, "cycle", cycleID, "error", err)
	}
}

func int64Ptr(v uint64) *int64 {
	n := int64(v)
	return &n
}
