package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ecosoul/internal/wire"
)

// TraceSnapshot is the golden form of a run: the journalled transitions
// and the final view.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Trace        []TraceEvent   `json:"trace"`
	Final        map[string]any `json:"final"`
}

// Canonical encodes the snapshot as canonical JSON. Absent view values
// are omitted.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := wire.Object{
			"seq":   event.Seq,
			"cycle": event.Cycle,
			"from":  event.From,
			"to":    event.To,
		}
		if len(event.Detail) > 0 {
			m["detail"] = wire.Object(event.Detail)
		}
		trace[i] = m
	}

	final := wire.Object{}
	for k, v := range s.Final {
		if v != nil {
			final[k] = v
		}
	}

	return wire.Marshal(wire.Object{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final":         final,
	})
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(name string, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Final:        result.State,
	}
}

// RunWithGolden executes a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result).Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
