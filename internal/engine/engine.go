package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/schema"
)

// SessionSource reports the active wallet session.
type SessionSource interface {
	CurrentSession() (ledger.Session, bool)
}

// StateReader reads the resource record for an identifier.
type StateReader interface {
	Fetch(ctx context.Context, id ledger.Identifier) (*ledger.ResourceRecord, error)
}

// MutationSubmitter dispatches one create or update.
type MutationSubmitter interface {
	Submit(ctx context.Context, kind resource.Kind, p resource.Payload) (resource.RequestHandle, error)
}

// ConfirmationWaiter blocks until a handle reaches a terminal status.
type ConfirmationWaiter interface {
	Await(ctx context.Context, h resource.RequestHandle) (resource.ConfirmationResult, error)
}

// Deps are the engine's collaborators.
type Deps struct {
	Session   SessionSource
	Reader    StateReader
	Submitter MutationSubmitter
	Waiter    ConfirmationWaiter
}

// DepsFor wires the resource components around one ledger client.
func DepsFor(client ledger.Client, s schema.Schema, target ledger.Network, opts ...resource.SubmitterOption) Deps {
	return Deps{
		Session:   client,
		Reader:    resource.NewReader(client, s),
		Submitter: resource.NewSubmitter(client, s, target, opts...),
		Waiter:    resource.NewWaiter(client, s),
	}
}

// Engine is the reconciliation engine for one eco-score resource.
//
// Thread-safety model:
//   - RecordActivity, Snapshot, Subscribe: safe from any goroutine
//   - Do: safe from any goroutine; the entry guard refuses overlapping cycles
//   - Run: must be called from exactly one goroutine
type Engine struct {
	deps    Deps
	target  ledger.Network
	clock   *Clock
	ids     resource.IDGenerator
	journal Journal
	timeout time.Duration
	queue   *cycleQueue

	mu   sync.Mutex
	view viewState

	// notifyMu serializes update+delivery so subscribers observe
	// transitions in sequence order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfirmationTimeout bounds how long a cycle waits for confirmation.
// Zero (the default) waits until the context ends.
func WithConfirmationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithJournal records cycles and transitions in j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithClock sets the sequence clock. Used to continue an existing journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the cycle id generator.
func WithIDGenerator(g resource.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine that mutates state only while the session is on
// target.
func New(deps Deps, target ledger.Network, opts ...Option) *Engine {
	e := &Engine{
		deps:    deps,
		target:  target,
		clock:   NewClock(),
		ids:     resource.UUIDv7Generator{},
		journal: nopJournal{},
		queue:   newCycleQueue(),
		view:    newViewState(),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Target returns the network mutations are restricted to.
func (e *Engine) Target() ledger.Network {
	return e.target
}

// Snapshot returns a consistent copy of the current view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.snapshot()
}

// Subscribe registers fn to receive a snapshot after every view change.
// fn runs on the goroutine that made the change and must not call
// RecordActivity or Do. The returned func removes the subscription.
func (e *Engine) Subscribe(fn func(Snapshot)) (cancel func()) {
	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, id)
			e.subsMu.Unlock()
		})
	}
}

// RecordActivity starts a cycle for label and returns without waiting.
// The entry guard and the session preconditions run synchronously; a
// refused call only sets LastError. Accepted cycles run on the Run loop.
func (e *Engine) RecordActivity(label string) {
	c, rejected := e.begin(label)
	if rejected != nil {
		return
	}
	if !e.queue.Enqueue(c) {
		ctx := context.Background()
		e.journalBegin(ctx, c)
		e.fail(ctx, c, &ErrorInfo{Code: CodeSubmission, Message: "engine stopped"})
	}
}

// Do runs a full cycle for label on the calling goroutine and returns its
// terminal error, or nil when the cycle confirmed and re-read the record.
func (e *Engine) Do(ctx context.Context, label string) error {
	c, rejected := e.begin(label)
	if rejected != nil {
		return rejected
	}
	if info := e.runCycle(ctx, c); info != nil {
		return info
	}
	return nil
}

// Run executes queued cycles until ctx ends or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "target", e.target.String())

	for {
		if c, ok := e.queue.TryDequeue(); ok {
			e.runCycle(ctx, c)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.drain(ctx)
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Len() == 0 && e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// drain fails every cycle still queued after the queue closed, so none is
// left in Submitting.
func (e *Engine) drain(ctx context.Context) {
	for {
		c, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.journalBegin(ctx, c)
		e.fail(ctx, c, &ErrorInfo{Code: CodeSubmission, Message: "engine stopped"})
	}
}

// Stop closes the queue. Run returns once queued cycles have drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// update applies fn to the view under the lock and delivers the resulting
// snapshot to subscribers after releasing it.
func (e *Engine) update(fn func(v *viewState)) Snapshot {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	fn(&e.view)
	snap := e.view.snapshot()
	e.mu.Unlock()

	e.subsMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return snap
}
