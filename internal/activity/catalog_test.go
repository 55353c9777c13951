package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Scores(t *testing.T) {
	c := DefaultCatalog()

	cases := map[string]uint64{
		"biking":           100,
		"walking":          80,
		"public_transport": 90,
		"recycling":        70,
		"planting":         150,
		"kayaking":         BaseScore,
	}
	for label, want := range cases {
		assert.Equal(t, want, c.Score(label), label)
	}
}

func TestCatalog_LookupNormalizes(t *testing.T) {
	c := DefaultCatalog()

	a, ok := c.Lookup("  Public Transport ")
	require.True(t, ok)
	assert.Equal(t, "public_transport", a.ID)
	assert.Equal(t, "Public Transport", a.Label)

	_, ok = c.Lookup("PLANTING")
	assert.True(t, ok)
}

func TestCatalog_OrderPreserved(t *testing.T) {
	ids := []string{}
	for _, a := range DefaultCatalog().All() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"biking", "walking", "public_transport", "recycling", "planting"}, ids)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog([]Activity{{ID: " "}})
	assert.ErrorContains(t, err, "id is required")

	_, err = NewCatalog([]Activity{{ID: "biking"}, {ID: "Biking"}})
	assert.ErrorContains(t, err, "duplicate id")
}

func TestNewCatalog_DefaultsLabel(t *testing.T) {
	c, err := NewCatalog([]Activity{{ID: "tree_planting", Multiplier: 200}})
	require.NoError(t, err)
	a, ok := c.Lookup("tree planting")
	require.True(t, ok)
	assert.Equal(t, "Tree Planting", a.Label)
	assert.Equal(t, uint64(200), a.Score())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "biking", Normalize("Biking"))
	assert.Equal(t, "public_transport", Normalize("public   transport"))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, Normalize("caf\u00e9"), Normalize("Cafe\u0301"))
}
