// Package present adapts the engine's view for a user interface.
//
// The adapter is a boundary only: it derives what to show from the wallet
// session and an engine snapshot, and forwards user intent back to the
// engine. It holds no state of its own.
package present

import (
	"context"
	"fmt"

	"github.com/roach88/ecosoul/internal/engine"
	"github.com/roach88/ecosoul/internal/ledger"
)

// RenderState selects which screen to show.
type RenderState string

const (
	StateDisconnected  RenderState = "disconnected"
	StateWrongNetwork  RenderState = "wrongNetwork"
	StateNoResourceYet RenderState = "noResourceYet"
	StateHasResource   RenderState = "hasResource"
	StateBusy          RenderState = "busy"
)

// Engine is the part of the engine the adapter drives.
type Engine interface {
	Snapshot() engine.Snapshot
	RecordActivity(label string)
	Target() ledger.Network
}

// Wallet opens and reports the user's session.
type Wallet interface {
	Connect(ctx context.Context) (ledger.Session, error)
	CurrentSession() (ledger.Session, bool)
}

// Adapter derives render state from an engine and a wallet.
type Adapter struct {
	engine Engine
	wallet Wallet
}

// New creates an Adapter.
func New(e Engine, w Wallet) *Adapter {
	return &Adapter{engine: e, wallet: w}
}

// Connect forwards a connect request to the wallet.
func (a *Adapter) Connect(ctx context.Context) (ledger.Session, error) {
	sess, err := a.wallet.Connect(ctx)
	if err != nil {
		return ledger.Session{}, fmt.Errorf("connect wallet: %w", err)
	}
	return sess, nil
}

// Submit forwards the chosen activity to the engine.
func (a *Adapter) Submit(label string) {
	a.engine.RecordActivity(label)
}

// InputDisabled reports whether activity input must be blocked.
func (a *Adapter) InputDisabled() bool {
	return a.engine.Snapshot().Busy()
}

// State derives the render state from the current session and view.
func (a *Adapter) State() RenderState {
	return a.stateFor(a.engine.Snapshot())
}

func (a *Adapter) stateFor(snap engine.Snapshot) RenderState {
	sess, ok := a.wallet.CurrentSession()
	switch {
	case !ok:
		return StateDisconnected
	case sess.Network.ID != a.engine.Target().ID:
		return StateWrongNetwork
	case snap.Busy():
		return StateBusy
	case snap.Identifier == nil:
		return StateNoResourceYet
	default:
		return StateHasResource
	}
}

// Glyph returns the word for the weather icon.
func Glyph(w ledger.Weather) string {
	switch w {
	case ledger.WeatherSunny:
		return "sunflower"
	case ledger.WeatherRainy:
		return "rain"
	default:
		return "seedling"
	}
}

// ActionLabel is the caption of the record button for a snapshot.
func ActionLabel(snap engine.Snapshot) string {
	switch snap.Phase {
	case engine.PhaseSubmitting:
		if snap.Identifier == nil {
			return "Minting..."
		}
		return "Updating..."
	case engine.PhaseAwaitingConfirmation, engine.PhaseRefetching:
		return "Confirming..."
	default:
		return "Record Activity"
	}
}
