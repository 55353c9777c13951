package resource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/ecosoul/internal/activity"
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/schema"
	"github.com/roach88/ecosoul/internal/wire"
)

// WeatherSource supplies the weather reading attached to updates.
type WeatherSource func() ledger.Weather

// FixedWeather always reports w.
func FixedWeather(w ledger.Weather) WeatherSource {
	return func() ledger.Weather { return w }
}

// Submitter builds and dispatches create and update mutations.
type Submitter struct {
	client  ledger.Client
	schema  schema.Schema
	target  ledger.Network
	catalog *activity.Catalog
	weather WeatherSource
	ids     IDGenerator
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithCatalog sets the activity catalogue used to score updates.
func WithCatalog(c *activity.Catalog) SubmitterOption {
	return func(s *Submitter) { s.catalog = c }
}

// WithWeather sets the weather source for updates.
func WithWeather(w WeatherSource) SubmitterOption {
	return func(s *Submitter) { s.weather = w }
}

// WithIDGenerator sets the submission id generator.
func WithIDGenerator(g IDGenerator) SubmitterOption {
	return func(s *Submitter) { s.ids = g }
}

// NewSubmitter creates a Submitter that only dispatches on target.
func NewSubmitter(client ledger.Client, s schema.Schema, target ledger.Network, opts ...SubmitterOption) *Submitter {
	sub := &Submitter{
		client:  client,
		schema:  s,
		target:  target,
		catalog: activity.DefaultCatalog(),
		weather: FixedWeather(ledger.WeatherSunny),
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(sub)
	}
	return sub
}

// Submit dispatches exactly one mutation and returns a pending handle
// without waiting for confirmation. On error no handle exists and nothing
// was dispatched, except for ReasonRejected where the client itself
// refused the request.
func (s *Submitter) Submit(ctx context.Context, kind Kind, p Payload) (RequestHandle, error) {
	sess, ok := s.client.CurrentSession()
	if !ok {
		return RequestHandle{}, &SubmissionError{
			Reason:  ReasonNotConnected,
			Kind:    kind,
			Message: "please connect your wallet first",
		}
	}
	if sess.Network.ID != s.target.ID {
		return RequestHandle{}, &SubmissionError{
			Reason:  ReasonWrongNetwork,
			Kind:    kind,
			Message: fmt.Sprintf("please switch to %s; current network: %s", s.target, sess.Network),
		}
	}

	label := activity.Normalize(p.Activity)
	if label == "" {
		return RequestHandle{}, invalid(kind, "activity label is empty")
	}

	var (
		method string
		args   []any
		fields = wire.Object{"kind": string(kind), "activity": label}
	)
	switch kind {
	case KindCreate:
		if p.Identifier != nil {
			return RequestHandle{}, invalid(kind, "create must not name an identifier")
		}
		method = s.schema.CreateMethod
		args = s.schema.CreateArgs(label)
	case KindUpdate:
		if p.Identifier == nil {
			return RequestHandle{}, invalid(kind, "update requires an identifier")
		}
		weather := s.weather()
		score := s.catalog.Score(label)
		method = s.schema.UpdateMethod
		args = s.schema.UpdateArgs(uint64(*p.Identifier), string(weather), score, label)
		fields["identifier"] = uint64(*p.Identifier)
		fields["weather"] = string(weather)
		fields["eco_score"] = score
	default:
		return RequestHandle{}, invalid(kind, "unknown mutation kind")
	}

	digest, err := wire.Digest(wire.DomainSubmission, fields)
	if err != nil {
		return RequestHandle{}, invalid(kind, err.Error())
	}

	hash, err := s.client.Submit(ctx, s.schema.Address, method, args...)
	if err != nil {
		return RequestHandle{}, &SubmissionError{
			Reason:  ReasonRejected,
			Kind:    kind,
			Message: "ledger rejected " + method,
			Err:     err,
		}
	}

	h := RequestHandle{
		SubmissionID: s.ids.Generate(),
		Hash:         hash,
		Kind:         kind,
		Status:       StatusPending,
		Activity:     label,
		Digest:       digest,
	}
	slog.Debug("mutation submitted",
		"submission", h.SubmissionID,
		"kind", kind,
		"method", method,
		"hash", hash,
	)
	return h, nil
}

func invalid(kind Kind, msg string) *SubmissionError {
	return &SubmissionError{Reason: ReasonInvalidPayload, Kind: kind, Message: msg}
}
