package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/roach88/ecosoul/internal/schema"
)

// Simulator is an in-memory ledger that behaves like the deployed token
// contract: create mints the next identifier and emits the Created event,
// update overwrites a token's reading and emits Updated, and the read method
// returns the current state tuple.
//
// By default submissions finalize as soon as they are accepted. With
// WithManualFinalize, submissions stay pending until Finalize is called,
// which lets tests hold a cycle in AwaitingConfirmation.
//
// Thread-safety: all methods are safe for concurrent use.
type Simulator struct {
	mu sync.Mutex

	schema    schema.Schema
	account   string
	network   Network
	connected bool

	tokens  map[Identifier]ResourceRecord
	owners  map[Identifier]string
	nextID  Identifier
	pending map[SubmissionHash]*pendingSubmission
	order   []SubmissionHash
	hashSeq uint64

	now       func() int64
	mintScore func(activity string) uint64
	manual    bool

	rejectNext error
	revertNext string
	readErr    error
	queries    int
}

type pendingSubmission struct {
	method  string
	args    []any
	done    chan struct{}
	receipt Receipt
	final   bool
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSimulatorSchema sets the contract schema the simulator implements.
func WithSimulatorSchema(s schema.Schema) SimulatorOption {
	return func(sim *Simulator) { sim.schema = s }
}

// WithAccount sets the account reported once connected.
func WithAccount(account string) SimulatorOption {
	return func(sim *Simulator) { sim.account = account }
}

// WithNetwork sets the network the wallet points at.
func WithNetwork(n Network) SimulatorOption {
	return func(sim *Simulator) { sim.network = n }
}

// WithNextIdentifier sets the identifier assigned by the next create.
func WithNextIdentifier(id Identifier) SimulatorOption {
	return func(sim *Simulator) { sim.nextID = id }
}

// WithClock sets the source of lastUpdate timestamps (unix seconds).
func WithClock(now func() int64) SimulatorOption {
	return func(sim *Simulator) { sim.now = now }
}

// WithMintScore sets the eco score assigned to a freshly minted token.
func WithMintScore(score func(activity string) uint64) SimulatorOption {
	return func(sim *Simulator) { sim.mintScore = score }
}

// WithManualFinalize keeps submissions pending until Finalize is called.
func WithManualFinalize() SimulatorOption {
	return func(sim *Simulator) { sim.manual = true }
}

// Connected starts the simulator with an active session.
func Connected() SimulatorOption {
	return func(sim *Simulator) { sim.connected = true }
}

// NewSimulator creates a simulator on Sepolia with the default schema.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	sim := &Simulator{
		schema:    schema.Default(),
		account:   "0x0000000000000000000000000000000000000001",
		network:   Sepolia,
		tokens:    make(map[Identifier]ResourceRecord),
		owners:    make(map[Identifier]string),
		pending:   make(map[SubmissionHash]*pendingSubmission),
		now:       func() int64 { return time.Now().Unix() },
		mintScore: func(string) uint64 { return 100 },
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Connect opens a session.
func (s *Simulator) Connect(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return Session{Account: s.account, Network: s.network}, nil
}

// Disconnect drops the session.
func (s *Simulator) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// SwitchNetwork points the wallet at another network.
func (s *Simulator) SwitchNetwork(n Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = n
}

// CurrentSession reports the active session.
func (s *Simulator) CurrentSession() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return Session{}, false
	}
	return Session{Account: s.account, Network: s.network}, true
}

// RejectNextSubmit makes the next Submit fail synchronously with err.
func (s *Simulator) RejectNextSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectNext = err
}

// RevertNextSubmit makes the next accepted submission finalize as reverted.
func (s *Simulator) RevertNextSubmit(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revertNext = reason
}

// FailReads makes every Query fail with err until called with nil.
func (s *Simulator) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// SetRecord seeds or overwrites a token's state.
func (s *Simulator) SetRecord(id Identifier, rec ResourceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = rec
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// Submissions returns every accepted submission hash in order.
func (s *Simulator) Submissions() []SubmissionHash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SubmissionHash, len(s.order))
	copy(out, s.order)
	return out
}

// SubmissionCount returns the number of accepted submissions.
func (s *Simulator) SubmissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// QueryCount returns the number of Query calls, failed ones included.
func (s *Simulator) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// Query implements Client. Only the schema's read method is supported.
func (s *Simulator) Query(ctx context.Context, address, method string, args ...any) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++

	if s.readErr != nil {
		return nil, s.readErr
	}
	if address != s.schema.Address {
		return nil, fmt.Errorf("no contract at %s", address)
	}
	if method != s.schema.ReadMethod {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", method, len(args))
	}
	raw, err := Uint64(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: identifier: %w", method, err)
	}
	rec, ok := s.tokens[Identifier(raw)]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIdentifier, raw)
	}

	out := Values{
		schema.FieldEcoScore:   new(big.Int).SetUint64(rec.EcoScore),
		schema.FieldWeather:    string(rec.Weather),
		schema.FieldLastUpdate: big.NewInt(rec.LastUpdate),
	}
	if s.schema.WithActivity {
		out[schema.FieldLastActivity] = rec.Activity()
	}
	return out, nil
}

// Submit implements Client.
func (s *Simulator) Submit(ctx context.Context, address, method string, args ...any) (SubmissionHash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return "", ErrNotConnected
	}
	if s.rejectNext != nil {
		err := s.rejectNext
		s.rejectNext = nil
		return "", err
	}
	if address != s.schema.Address {
		return "", fmt.Errorf("no contract at %s", address)
	}
	if method != s.schema.CreateMethod && method != s.schema.UpdateMethod {
		return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	s.hashSeq++
	hash := SubmissionHash(fmt.Sprintf("0x%064x", s.hashSeq))
	p := &pendingSubmission{
		method: method,
		args:   append([]any(nil), args...),
		done:   make(chan struct{}),
	}
	if s.revertNext != "" {
		p.receipt = Receipt{Hash: hash, Status: ReceiptReverted, Reason: s.revertNext}
		s.revertNext = ""
	}
	s.pending[hash] = p
	s.order = append(s.order, hash)

	if !s.manual {
		s.finalizeLocked(hash, p)
	}
	return hash, nil
}

// Finalize executes a pending submission. It is a no-op for submissions
// that are already final.
func (s *Simulator) Finalize(hash SubmissionHash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[hash]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubmission, hash)
	}
	s.finalizeLocked(hash, p)
	return nil
}

// FinalizeAll executes every pending submission in submission order.
func (s *Simulator) FinalizeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, hash := range s.order {
		s.finalizeLocked(hash, s.pending[hash])
	}
}

// WaitForSubmission implements Client. It blocks until the submission is
// finalized or ctx is done.
func (s *Simulator) WaitForSubmission(ctx context.Context, hash SubmissionHash) (Receipt, error) {
	s.mu.Lock()
	p, ok := s.pending[hash]
	s.mu.Unlock()
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", ErrUnknownSubmission, hash)
	}

	select {
	case <-p.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return p.receipt, nil
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
}

func (s *Simulator) finalizeLocked(hash SubmissionHash, p *pendingSubmission) {
	if p.final {
		return
	}
	p.final = true
	defer close(p.done)

	if p.receipt.Status == ReceiptReverted {
		return
	}

	var err error
	switch p.method {
	case s.schema.CreateMethod:
		p.receipt, err = s.applyCreate(hash, p.args)
	case s.schema.UpdateMethod:
		p.receipt, err = s.applyUpdate(hash, p.args)
	}
	if err != nil {
		p.receipt = Receipt{Hash: hash, Status: ReceiptReverted, Reason: err.Error()}
	}
}

func (s *Simulator) applyCreate(hash SubmissionHash, args []any) (Receipt, error) {
	var activity *string
	if s.schema.WithActivity {
		if len(args) != 1 {
			return Receipt{}, fmt.Errorf("%s: expected 1 argument, got %d", s.schema.CreateMethod, len(args))
		}
		label, err := String(args[0])
		if err != nil {
			return Receipt{}, fmt.Errorf("%s: activity: %w", s.schema.CreateMethod, err)
		}
		activity = &label
	}

	id := s.nextID
	s.nextID++
	label := ""
	if activity != nil {
		label = *activity
	}
	s.tokens[id] = ResourceRecord{
		EcoScore:     s.mintScore(label),
		Weather:      WeatherSunny,
		LastUpdate:   s.now(),
		LastActivity: activity,
	}
	s.owners[id] = s.account

	return Receipt{
		Hash:   hash,
		Status: ReceiptSuccess,
		Events: []Event{{
			Name: s.schema.CreatedEvent,
			Fields: Values{
				schema.FieldOwner:        s.account,
				s.schema.IdentifierField: new(big.Int).SetUint64(uint64(id)),
			},
		}},
	}, nil
}

func (s *Simulator) applyUpdate(hash SubmissionHash, args []any) (Receipt, error) {
	want := 3
	if s.schema.WithActivity {
		want = 4
	}
	if len(args) != want {
		return Receipt{}, fmt.Errorf("%s: expected %d arguments, got %d", s.schema.UpdateMethod, want, len(args))
	}
	raw, err := Uint64(args[0])
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: identifier: %w", s.schema.UpdateMethod, err)
	}
	id := Identifier(raw)
	if _, ok := s.tokens[id]; !ok {
		return Receipt{}, fmt.Errorf("%s: token %d does not exist", s.schema.UpdateMethod, id)
	}
	weather, err := String(args[1])
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: weather: %w", s.schema.UpdateMethod, err)
	}
	score, err := Uint64(args[2])
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: eco score: %w", s.schema.UpdateMethod, err)
	}

	rec := ResourceRecord{
		EcoScore:   score,
		Weather:    ParseWeather(weather),
		LastUpdate: s.now(),
	}
	fields := Values{
		s.schema.IdentifierField: new(big.Int).SetUint64(raw),
		schema.FieldWeather:      weather,
		schema.FieldEcoScore:     new(big.Int).SetUint64(score),
	}
	if s.schema.WithActivity {
		label, err := String(args[3])
		if err != nil {
			return Receipt{}, fmt.Errorf("%s: activity: %w", s.schema.UpdateMethod, err)
		}
		rec.LastActivity = &label
		fields[schema.FieldActivity] = label
	}
	s.tokens[id] = rec

	events := []Event{}
	if s.schema.UpdatedEvent != "" {
		events = append(events, Event{Name: s.schema.UpdatedEvent, Fields: fields})
	}
	return Receipt{Hash: hash, Status: ReceiptSuccess, Events: events}, nil
}
