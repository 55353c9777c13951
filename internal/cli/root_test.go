package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ecosoul", cmd.Use)
	assert.Contains(t, cmd.Long, "eco-score token")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"record", "scenario", "validate", "activities"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestRecordCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	record, _, err := cmd.Find([]string{"record"})
	require.NoError(t, err)

	nextID := record.Flags().Lookup("next-id")
	require.NotNil(t, nextID)
	assert.Equal(t, "1", nextID.DefValue)

	for _, name := range []string{"network", "disconnected", "journal", "metrics"} {
		assert.NotNil(t, record.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "activities", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingArgs(t *testing.T) {
	_, err := execute(t, "record")
	assert.Error(t, err)

	_, err = execute(t, "validate")
	assert.Error(t, err)
}
