// Package schema describes the token contract the reconciler talks to:
// where it lives and which methods, events and fields it exposes.
//
// Two deployments exist: one carries an activity label on state, update and
// event; one does not. WithActivity selects between them and every consumer
// treats the label as optional.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Schema is an immutable description of the resource contract.
// Pass it by value.
type Schema struct {
	Address string

	ReadMethod   string // getState(identifier) -> state tuple
	CreateMethod string // create(activity?)
	UpdateMethod string // update(identifier, weather, ecoScore, activity?)

	CreatedEvent string // Created(owner, identifier)
	UpdatedEvent string // Updated(identifier, weather, ecoScore, activity?)

	// IdentifierField is the event field carrying the token identifier.
	IdentifierField string

	// WithActivity is true for the variant that carries activity labels.
	WithActivity bool
}

// Field names of the state tuple and Updated event.
const (
	FieldEcoScore     = "ecoScore"
	FieldWeather      = "weatherCondition"
	FieldLastUpdate   = "lastUpdate"
	FieldLastActivity = "lastActivity"
	FieldActivity     = "activity"
	FieldOwner        = "owner"
)

// DefaultAddress is the EcoSoul deployment on Sepolia.
const DefaultAddress = "0x25f163C5B32c053e3e6Cc39c95Cf2a8A305E96E4"

// Default returns the schema of the deployed EcoSoul contract.
func Default() Schema {
	return Schema{
		Address:         DefaultAddress,
		ReadMethod:      "getNFTState",
		CreateMethod:    "mint",
		UpdateMethod:    "updateNFTState",
		CreatedEvent:    "NFTMinted",
		UpdatedEvent:    "NFTUpdated",
		IdentifierField: "tokenId",
		WithActivity:    true,
	}
}

// WithoutActivity returns a copy of s for the variant without activity labels.
func (s Schema) WithoutActivity() Schema {
	s.WithActivity = false
	return s
}

// CreateArgs builds the argument list for the create method.
func (s Schema) CreateArgs(activity string) []any {
	if !s.WithActivity {
		return nil
	}
	return []any{activity}
}

// UpdateArgs builds the argument list for the update method.
func (s Schema) UpdateArgs(id uint64, weather string, ecoScore uint64, activity string) []any {
	args := []any{id, weather, ecoScore}
	if s.WithActivity {
		args = append(args, activity)
	}
	return args
}

// Validate reports missing fields.
func (s Schema) Validate() error {
	var errs []error
	required := []struct {
		name, value string
	}{
		{"address", s.Address},
		{"read_method", s.ReadMethod},
		{"create_method", s.CreateMethod},
		{"update_method", s.UpdateMethod},
		{"created_event", s.CreatedEvent},
		{"identifier_field", s.IdentifierField},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("schema %s is required", r.name))
		}
	}
	return errors.Join(errs...)
}
