package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecosoul/internal/store"
	"github.com/roach88/ecosoul/internal/wire"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Cycle: "c1", From: "idle", To: "submitting", Detail: map[string]any{"activity": "biking"}},
		{Seq: 2, Cycle: "c1", From: "submitting", To: "awaiting_confirmation"},
		{Seq: 3, Cycle: "c1", From: "awaiting_confirmation", To: "refetching", Detail: map[string]any{"identifier": int64(7)}},
		{Seq: 4, Cycle: "c1", From: "refetching", To: "idle"},
		{Seq: 5, Cycle: "c2", From: "idle", To: "submitting"},
		{Seq: 6, Cycle: "c2", From: "submitting", To: "failed", Detail: map[string]any{"code": "SUBMISSION"}},
		{Seq: 7, Cycle: "c2", From: "failed", To: "idle"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{To: "refetching", Detail: map[string]any{"identifier": 7}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{From: "submitting", To: "failed"}))

	err := assertTraceContains(trace, Assertion{To: "refetching", Detail: map[string]any{"identifier": 8}})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "[3] c1 awaiting_confirmation -> refetching")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Phases: []string{"submitting", "refetching", "failed", "idle"}}))

	err := assertTraceOrder(trace, Assertion{Phases: []string{"failed", "refetching"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing refetching")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{To: "idle", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{From: "failed", To: "idle", Count: 1}))
	assert.Error(t, assertTraceCount(trace, Assertion{To: "submitting", Count: 1}))
}

func TestAssertViewState(t *testing.T) {
	state := map[string]any{"phase": "idle", "identifier": int64(7), "error_code": nil, "pending": false}

	assert.NoError(t, assertViewState(state, Assertion{Expect: map[string]any{"identifier": 7, "error_code": nil, "pending": false}}))
	assert.Error(t, assertViewState(state, Assertion{Expect: map[string]any{"identifier": nil}}))
	assert.Error(t, assertViewState(state, Assertion{Expect: map[string]any{"missing": 1}}))
}

func TestAssertJournalState(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	defer st.Close()

	for i, id := range []string{"c1", "c2"} {
		require.NoError(t, st.BeginCycle(ctx, store.Cycle{ID: id, Seq: int64(i + 1), Activity: "biking", Kind: "create"}))
	}
	require.NoError(t, st.AppendTransition(ctx, store.Transition{Seq: 1, CycleID: "c1", From: "idle", To: "submitting", Detail: wire.Object{}}))

	assert.NoError(t, assertJournalState(ctx, st, Assertion{
		Table:  "cycles",
		Where:  map[string]any{"id": "c1"},
		Expect: map[string]any{"outcome": "running", "seq": 1},
	}))

	err = assertJournalState(ctx, st, Assertion{Table: "cycles", Where: map[string]any{"kind": "create"}, Expect: map[string]any{"seq": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple rows matched")

	err = assertJournalState(ctx, st, Assertion{Table: "cycles", Where: map[string]any{"id": "zz"}, Expect: map[string]any{"seq": 1}})
	assert.Contains(t, err.Error(), "row not found")

	err = assertJournalState(ctx, st, Assertion{Table: "cycles; DROP TABLE cycles", Expect: map[string]any{"seq": 1}})
	assert.Contains(t, err.Error(), "invalid table name")

	err = assertJournalState(ctx, st, Assertion{Table: "cycles", Where: map[string]any{"id = 1 OR 1": 1}, Expect: map[string]any{"seq": 1}})
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual(nil, "x"))
	assert.True(t, stateValuesEqual(7, int64(7)))
	assert.True(t, stateValuesEqual(7, uint64(7)))
	assert.False(t, stateValuesEqual(7, "7"))
	assert.True(t, stateValuesEqual("a", []byte("a")))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.False(t, stateValuesEqual(false, int64(1)))
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "vibes"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "vibes"`)
}

func TestEvaluateAssertions_JournalNeedsContext(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertFinalState, Table: "cycles", Expect: map[string]any{"seq": 1}}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires journal context")
}
