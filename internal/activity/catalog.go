// Package activity holds the catalogue of eco-friendly activities a user can
// record and the score each one is worth.
package activity

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// BaseScore is the eco score of an activity at a 100% multiplier.
const BaseScore = 100

// Activity is one catalogue entry.
type Activity struct {
	ID         string `yaml:"id" toml:"id" json:"id"`
	Label      string `yaml:"label" toml:"label" json:"label"`
	Multiplier uint64 `yaml:"multiplier" toml:"multiplier" json:"multiplier"` // percent
}

// Score is the eco score the activity is worth.
func (a Activity) Score() uint64 {
	return BaseScore * a.Multiplier / 100
}

// Catalog is an ordered, immutable set of activities.
type Catalog struct {
	entries []Activity
	byID    map[string]int
}

// Defaults is the built-in catalogue.
func Defaults() []Activity {
	return []Activity{
		{ID: "biking", Label: "Biking (5km)", Multiplier: 100},
		{ID: "walking", Label: "Walking (5km)", Multiplier: 80},
		{ID: "public_transport", Label: "Public Transport", Multiplier: 90},
		{ID: "recycling", Label: "Recycling", Multiplier: 70},
		{ID: "planting", Label: "Planting Trees", Multiplier: 150},
	}
}

// DefaultCatalog returns a catalogue of Defaults().
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Defaults())
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog builds a catalogue. IDs are normalized and must be unique.
func NewCatalog(entries []Activity) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Activity, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, a := range entries {
		id := Normalize(a.ID)
		if id == "" {
			return nil, fmt.Errorf("activity[%d]: id is required", i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("activity[%d]: duplicate id %q", i, id)
		}
		a.ID = id
		if a.Label == "" {
			a.Label = DisplayLabel(id)
		}
		c.byID[id] = len(c.entries)
		c.entries = append(c.entries, a)
	}
	return c, nil
}

// All returns the entries in declaration order.
func (c *Catalog) All() []Activity {
	out := make([]Activity, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds an activity by label, after normalization.
func (c *Catalog) Lookup(label string) (Activity, bool) {
	i, ok := c.byID[Normalize(label)]
	if !ok {
		return Activity{}, false
	}
	return c.entries[i], true
}

// Score returns the eco score for a label. Labels outside the catalogue are
// accepted at a 100% multiplier.
func (c *Catalog) Score(label string) uint64 {
	if a, ok := c.Lookup(label); ok {
		return a.Score()
	}
	return BaseScore
}

// Normalize canonicalizes a free-form activity label: NFC, trimmed, case
// folded, inner whitespace collapsed to underscores.
func Normalize(label string) string {
	s := norm.NFC.String(strings.TrimSpace(label))
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), "_")
}

// DisplayLabel turns an activity id into a title-cased label.
func DisplayLabel(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}
