package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/ecosoul/internal/config"
	"github.com/roach88/ecosoul/internal/engine"
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/store"
	"github.com/roach88/ecosoul/internal/testutil"
)

// DefaultTimestamp is the first ledger timestamp when a scenario sets none.
const DefaultTimestamp int64 = 1700000000

// Harness holds the per-run wiring of one scenario.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	ledger  *ledger.Simulator
	clock   *testutil.StepClock
	weather ledger.Weather
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh simulator and a fresh in-memory
// journal. Cycle ids are cycle-1, cycle-2, ... and submission ids sub-1,
// sub-2, ..., so traces are reproducible.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg := config.Default()
	if scenario.Config != "" {
		loaded, err := config.Load(scenario.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(scenario, cfg, st)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	transitions, err := st.AllTransitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	for _, tr := range transitions {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:    tr.Seq,
			Cycle:  tr.CycleID,
			From:   tr.From,
			To:     tr.To,
			Detail: map[string]any(tr.Detail),
		})
	}
	result.State = viewState(h.engine.Snapshot())
	result.Submissions = h.ledger.SubmissionCount()

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario, cfg config.Config, st *store.Store) (*Harness, error) {
	network := cfg.Network
	if scenario.Ledger.Network != "" {
		n, err := ParseNetwork(scenario.Ledger.Network)
		if err != nil {
			return nil, err
		}
		network = n
	}

	start := scenario.Ledger.Timestamp
	if start == 0 {
		start = DefaultTimestamp
	}

	h := &Harness{
		store:   st,
		clock:   testutil.NewStepClock(start, scenario.Ledger.Tick),
		weather: cfg.Weather,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	simOpts := []ledger.SimulatorOption{
		ledger.WithSimulatorSchema(cfg.Schema),
		ledger.WithNetwork(network),
		ledger.WithNextIdentifier(ledger.Identifier(scenario.Ledger.NextIdentifier)),
		ledger.WithClock(h.clock.Now),
	}
	if scenario.Ledger.Connected {
		simOpts = append(simOpts, ledger.Connected())
	}
	h.ledger = ledger.NewSimulator(simOpts...)

	deps := engine.DepsFor(h.ledger, cfg.Schema, cfg.Network,
		resource.WithCatalog(cfg.Catalog),
		resource.WithWeather(func() ledger.Weather { return h.weather }),
		resource.WithIDGenerator(resource.NewSequenceGenerator("sub")),
	)
	h.engine = engine.New(deps, cfg.Network,
		engine.WithJournal(st),
		engine.WithIDGenerator(resource.NewSequenceGenerator("cycle")),
		engine.WithConfirmationTimeout(cfg.ConfirmationTimeout),
	)
	return h, nil
}

// executeStep applies one step. Record steps run a full cycle inline.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	sr := StepResult{Index: i, Action: step.Action()}

	switch {
	case step.Record != "":
		err := h.engine.Do(ctx, step.Record)
		if err != nil {
			var info *engine.ErrorInfo
			if !errors.As(err, &info) {
				return err
			}
			sr.ErrorCode = string(info.Code)
		}
		if step.Expect != nil {
			h.checkExpect(i, step, sr.ErrorCode, result)
		}

	case step.Connect:
		if _, err := h.ledger.Connect(ctx); err != nil {
			return err
		}
	case step.Disconnect:
		h.ledger.Disconnect()
	case step.SwitchNetwork != "":
		n, err := ParseNetwork(step.SwitchNetwork)
		if err != nil {
			return err
		}
		h.ledger.SwitchNetwork(n)
	case step.RejectNext != "":
		h.ledger.RejectNextSubmit(errors.New(step.RejectNext))
	case step.RevertNext != "":
		h.ledger.RevertNextSubmit(step.RevertNext)
	case step.FailReads != nil:
		if *step.FailReads == "" {
			h.ledger.FailReads(nil)
		} else {
			h.ledger.FailReads(errors.New(*step.FailReads))
		}
	case step.Weather != "":
		h.weather = ledger.ParseWeather(step.Weather)
	}

	h.logger.Info("step completed",
		"step", i,
		"action", sr.Action,
		"error_code", sr.ErrorCode,
	)
	result.Steps = append(result.Steps, sr)
	return nil
}

func (h *Harness) checkExpect(i int, step Step, code string, result *Result) {
	if code != step.Expect.Error {
		result.AddError(fmt.Sprintf("steps[%d] record %q: expected error %q, got %q",
			i, step.Record, step.Expect.Error, code))
	}
	if len(step.Expect.State) == 0 {
		return
	}

	view := viewState(h.engine.Snapshot())
	keys := make([]string, 0, len(step.Expect.State))
	for k := range step.Expect.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		want := step.Expect.State[key]
		got, ok := view[key]
		if !ok {
			result.AddError(fmt.Sprintf("steps[%d] record %q: unknown view field %q", i, step.Record, key))
			continue
		}
		if !stateValuesEqual(want, got) {
			result.AddError(fmt.Sprintf("steps[%d] record %q: field %q = %v, want %v",
				i, step.Record, key, got, want))
		}
	}
}

// viewState flattens a snapshot for assertions. Absent values are nil.
func viewState(snap engine.Snapshot) map[string]any {
	m := map[string]any{
		"phase":             string(snap.Phase),
		"cumulative_score":  int64(snap.CumulativeScore),
		"current_activity":  snap.CurrentActivity,
		"previous_activity": snap.PreviousActivity,
		"pending":           snap.Pending != nil,
		"identifier":        nil,
		"eco_score":         nil,
		"weather":           nil,
		"last_update":       nil,
		"last_activity":     nil,
		"error_code":        nil,
		"error":             nil,
	}
	if snap.Identifier != nil {
		m["identifier"] = int64(*snap.Identifier)
	}
	if rec := snap.Record; rec != nil {
		m["eco_score"] = int64(rec.EcoScore)
		m["weather"] = string(rec.Weather)
		m["last_update"] = rec.LastUpdate
		if rec.LastActivity != nil {
			m["last_activity"] = *rec.LastActivity
		}
	}
	if snap.LastError != nil {
		m["error_code"] = string(snap.LastError.Code)
		m["error"] = snap.LastError.Message
	}
	return m
}
