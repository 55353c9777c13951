package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/schema"
	"github.com/roach88/ecosoul/internal/store"
)

func newSim(opts ...ledger.SimulatorOption) *ledger.Simulator {
	base := []ledger.SimulatorOption{
		ledger.Connected(),
		ledger.WithNextIdentifier(7),
		ledger.WithClock(func() int64 { return 1700000000 }),
	}
	return ledger.NewSimulator(append(base, opts...)...)
}

func newTestEngine(t *testing.T, sim *ledger.Simulator, opts ...Option) *Engine {
	t.Helper()
	deps := DepsFor(sim, schema.Default(), ledger.Sepolia,
		resource.WithIDGenerator(resource.NewSequenceGenerator("sub")),
		resource.WithWeather(resource.FixedWeather(ledger.WeatherSunny)),
	)
	base := []Option{WithIDGenerator(resource.NewSequenceGenerator("cycle"))}
	return New(deps, ledger.Sepolia, append(base, opts...)...)
}

func newTestJournal(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// recorder collects every snapshot delivered to a subscriber.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func record(e *Engine) (*recorder, func()) {
	r := &recorder{}
	cancel := e.Subscribe(func(s Snapshot) {
		r.mu.Lock()
		r.snaps = append(r.snaps, s)
		r.mu.Unlock()
	})
	return r, cancel
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func (r *recorder) phases() []Phase {
	var out []Phase
	for _, s := range r.all() {
		out = append(out, s.Phase)
	}
	return out
}

func eventually(t *testing.T, e *Engine, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return cond(e.Snapshot()) }, 2*time.Second, 5*time.Millisecond)
	return e.Snapshot()
}
