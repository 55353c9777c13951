package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivities_Defaults(t *testing.T) {
	out, err := execute(t, "activities")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Planting Trees")
	assert.Contains(t, out, "150%")
}

func TestActivities_JSONFromConfig(t *testing.T) {
	out, err := execute(t, "activities", "--config", filepath.Join("..", "config", "testdata", "ecosoul.yaml"), "--format", "json")
	require.NoError(t, err)

	_, entries, _ := decode[[]ActivityEntry](t, out)
	require.Len(t, entries, 3)
	assert.Equal(t, ActivityEntry{ID: "composting", Label: "Composting", Multiplier: 60, Score: 60}, entries[2])
}
