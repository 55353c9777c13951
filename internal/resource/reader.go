package resource

import (
	"context"
	"fmt"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/schema"
)

// Reader fetches authoritative token records. It has no side effects and
// caches nothing; every Fetch is a fresh query.
type Reader struct {
	client ledger.Client
	schema schema.Schema
}

// NewReader creates a Reader for the contract described by s.
func NewReader(client ledger.Client, s schema.Schema) *Reader {
	return &Reader{client: client, schema: s}
}

// Fetch queries the current record for id. Every failure, including an
// unknown identifier or an undecodable result, is a *ReadError.
func (r *Reader) Fetch(ctx context.Context, id ledger.Identifier) (*ledger.ResourceRecord, error) {
	vals, err := r.client.Query(ctx, r.schema.Address, r.schema.ReadMethod, uint64(id))
	if err != nil {
		return nil, &ReadError{Identifier: id, Err: err}
	}
	rec, err := r.decode(vals)
	if err != nil {
		return nil, &ReadError{Identifier: id, Err: err}
	}
	return rec, nil
}

func (r *Reader) decode(vals ledger.Values) (*ledger.ResourceRecord, error) {
	raw, ok := vals[schema.FieldEcoScore]
	if !ok {
		return nil, fmt.Errorf("missing %s", schema.FieldEcoScore)
	}
	score, err := ledger.Uint64(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schema.FieldEcoScore, err)
	}

	weather := ledger.WeatherOther
	if raw, ok := vals[schema.FieldWeather]; ok {
		s, err := ledger.String(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.FieldWeather, err)
		}
		weather = ledger.ParseWeather(s)
	}

	var lastUpdate int64
	if raw, ok := vals[schema.FieldLastUpdate]; ok {
		lastUpdate, err = ledger.Int64(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.FieldLastUpdate, err)
		}
	}

	rec := &ledger.ResourceRecord{
		EcoScore:   score,
		Weather:    weather,
		LastUpdate: lastUpdate,
	}

	// Only the activity-carrying variant has lastActivity; absent means none.
	if r.schema.WithActivity {
		if raw, ok := vals[schema.FieldLastActivity]; ok {
			s, err := ledger.String(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", schema.FieldLastActivity, err)
			}
			rec.LastActivity = &s
		}
	}
	return rec, nil
}
