package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSnapshot_Canonical(t *testing.T) {
	snap := &TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Seq: 1, Cycle: "cycle-1", From: "idle", To: "submitting", Detail: map[string]any{"kind": "create", "activity": "biking"}},
			{Seq: 2, Cycle: "cycle-1", From: "failed", To: "idle", Detail: map[string]any{}},
		},
		Final: map[string]any{"phase": "idle", "identifier": nil, "cumulative_score": int64(0)},
	}

	data, err := snap.Canonical()
	require.NoError(t, err)

	want := `{"final":{"cumulative_score":0,"phase":"idle"},"scenario_name":"tiny","trace":[` +
		`{"cycle":"cycle-1","detail":{"activity":"biking","kind":"create"},"from":"idle","seq":1,"to":"submitting"},` +
		`{"cycle":"cycle-1","from":"failed","seq":2,"to":"idle"}]}`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshot_EmptyTrace(t *testing.T) {
	data, err := (&TraceSnapshot{ScenarioName: "none", Trace: []TraceEvent{}, Final: map[string]any{}}).Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"final":{},"scenario_name":"none","trace":[]}`, string(data))
}
