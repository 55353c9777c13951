package present

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecosoul/internal/engine"
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/schema"
)

func setup(t *testing.T, opts ...ledger.SimulatorOption) (*Adapter, *engine.Engine, *ledger.Simulator) {
	t.Helper()
	base := []ledger.SimulatorOption{
		ledger.WithNextIdentifier(7),
		ledger.WithClock(func() int64 { return 1700000000 }),
	}
	sim := ledger.NewSimulator(append(base, opts...)...)
	deps := engine.DepsFor(sim, schema.Default(), ledger.Sepolia,
		resource.WithWeather(resource.FixedWeather(ledger.WeatherRainy)))
	e := engine.New(deps, ledger.Sepolia)
	return New(e, sim), e, sim
}

// stubEngine pins a snapshot so busy states can be rendered.
type stubEngine struct {
	snap     engine.Snapshot
	recorded []string
}

func (s *stubEngine) Snapshot() engine.Snapshot   { return s.snap }
func (s *stubEngine) RecordActivity(label string) { s.recorded = append(s.recorded, label) }
func (s *stubEngine) Target() ledger.Network      { return ledger.Sepolia }

func TestAdapter_StateProgression(t *testing.T) {
	a, e, sim := setup(t)
	ctx := context.Background()

	assert.Equal(t, StateDisconnected, a.State())

	_, err := a.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateNoResourceYet, a.State())

	sim.SwitchNetwork(ledger.Mainnet)
	assert.Equal(t, StateWrongNetwork, a.State())

	sim.SwitchNetwork(ledger.Sepolia)
	require.NoError(t, e.Do(ctx, "biking"))
	assert.Equal(t, StateHasResource, a.State())
	assert.False(t, a.InputDisabled())
}

func TestAdapter_BusyDisablesInput(t *testing.T) {
	id := ledger.Identifier(7)
	stub := &stubEngine{snap: engine.Snapshot{Phase: engine.PhaseAwaitingConfirmation, Identifier: &id}}
	sim := ledger.NewSimulator(ledger.Connected())
	a := New(stub, sim)

	assert.Equal(t, StateBusy, a.State())
	assert.True(t, a.InputDisabled())
	assert.Equal(t, "Confirming...", a.View().Action)
}

func TestAdapter_SubmitForwards(t *testing.T) {
	stub := &stubEngine{snap: engine.Snapshot{Phase: engine.PhaseIdle}}
	a := New(stub, ledger.NewSimulator(ledger.Connected()))

	a.Submit("walking")
	assert.Equal(t, []string{"walking"}, stub.recorded)
}

func TestActionLabel(t *testing.T) {
	id := ledger.Identifier(1)
	assert.Equal(t, "Minting...", ActionLabel(engine.Snapshot{Phase: engine.PhaseSubmitting}))
	assert.Equal(t, "Updating...", ActionLabel(engine.Snapshot{Phase: engine.PhaseSubmitting, Identifier: &id}))
	assert.Equal(t, "Confirming...", ActionLabel(engine.Snapshot{Phase: engine.PhaseRefetching}))
	assert.Equal(t, "Record Activity", ActionLabel(engine.Snapshot{Phase: engine.PhaseIdle}))
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, "sunflower", Glyph(ledger.WeatherSunny))
	assert.Equal(t, "rain", Glyph(ledger.WeatherRainy))
	assert.Equal(t, "seedling", Glyph(ledger.WeatherOther))
}

func TestView_RenderCard(t *testing.T) {
	a, e, _ := setup(t, ledger.Connected())
	ctx := context.Background()
	require.NoError(t, e.Do(ctx, "biking"))
	require.NoError(t, e.Do(ctx, "planting"))

	want := "EcoSoul\n" +
		"status: state updated: score 150, weather rainy\n" +
		"[rain]\n" +
		"Current Activity: planting\n" +
		"Previous Activity: biking\n" +
		"Current Eco Score: 150\n" +
		"Total Eco Score: 250\n" +
		"Last updated: 2023-11-14T22:13:20Z\n" +
		"Token ID: 7\n" +
		"> Record Activity\n"
	assert.Equal(t, want, a.View().String())
}

func TestView_RenderWrongNetwork(t *testing.T) {
	a, e, _ := setup(t, ledger.Connected(), ledger.WithNetwork(ledger.Mainnet))
	require.Error(t, e.Do(context.Background(), "biking"))

	v := a.View()
	assert.Equal(t, "NETWORK_MISMATCH", v.ErrorCode)
	assert.Equal(t, "EcoSoul\n"+
		"error: please switch to Sepolia; current network: Ethereum\n"+
		"status: please switch to Sepolia; current network: Ethereum\n"+
		"Please switch to Sepolia\n", v.String())
}

func TestView_RenderEmpty(t *testing.T) {
	a, _, _ := setup(t, ledger.Connected())

	v := a.View()
	assert.Nil(t, v.EcoScore)
	assert.Nil(t, v.TokenID)
	assert.Equal(t, "EcoSoul\nNo NFT minted yet\n> Record Activity\n", v.String())
}
