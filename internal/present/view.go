package present

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// View is everything a screen shows, flattened for text or JSON output.
type View struct {
	State            RenderState `json:"state"`
	Network          string      `json:"network,omitempty"`
	Glyph            string      `json:"glyph,omitempty"`
	Weather          string      `json:"weather,omitempty"`
	CurrentActivity  string      `json:"current_activity"`
	PreviousActivity string      `json:"previous_activity"`
	EcoScore         *uint64     `json:"eco_score,omitempty"`
	TotalScore       uint64      `json:"total_score"`
	LastUpdated      string      `json:"last_updated,omitempty"`
	TokenID          *uint64     `json:"token_id,omitempty"`
	ErrorCode        string      `json:"error_code,omitempty"`
	Error            string      `json:"error,omitempty"`
	Status           string      `json:"status,omitempty"`
	Action           string      `json:"action"`
	InputDisabled    bool        `json:"input_disabled"`
}

// View builds the current View.
func (a *Adapter) View() View {
	snap := a.engine.Snapshot()
	v := View{
		State:            a.stateFor(snap),
		Network:          a.engine.Target().Name,
		CurrentActivity:  snap.CurrentActivity,
		PreviousActivity: snap.PreviousActivity,
		TotalScore:       snap.CumulativeScore,
		Status:           snap.Status,
		Action:           ActionLabel(snap),
		InputDisabled:    snap.Busy(),
	}
	if snap.Record != nil {
		score := snap.Record.EcoScore
		v.EcoScore = &score
		v.Weather = string(snap.Record.Weather)
		v.Glyph = Glyph(snap.Record.Weather)
		v.LastUpdated = time.Unix(snap.Record.LastUpdate, 0).UTC().Format(time.RFC3339)
	}
	if snap.Identifier != nil {
		id := uint64(*snap.Identifier)
		v.TokenID = &id
	}
	if snap.LastError != nil {
		v.ErrorCode = string(snap.LastError.Code)
		v.Error = snap.LastError.Message
	}
	return v
}

// Render writes the View as a plain text card.
func (v View) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString("EcoSoul\n")
	if v.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", v.Error)
	}
	if v.Status != "" {
		fmt.Fprintf(&b, "status: %s\n", v.Status)
	}

	switch v.State {
	case StateDisconnected:
		b.WriteString("Please connect your wallet to get started\n")
	case StateWrongNetwork:
		fmt.Fprintf(&b, "Please switch to %s\n", v.Network)
	default:
		if v.EcoScore == nil {
			b.WriteString("No NFT minted yet\n")
		} else {
			fmt.Fprintf(&b, "[%s]\n", v.Glyph)
			fmt.Fprintf(&b, "Current Activity: %s\n", v.CurrentActivity)
			fmt.Fprintf(&b, "Previous Activity: %s\n", v.PreviousActivity)
			fmt.Fprintf(&b, "Current Eco Score: %d\n", *v.EcoScore)
			fmt.Fprintf(&b, "Total Eco Score: %d\n", v.TotalScore)
			fmt.Fprintf(&b, "Last updated: %s\n", v.LastUpdated)
			if v.TokenID != nil {
				fmt.Fprintf(&b, "Token ID: %d\n", *v.TokenID)
			}
		}
		fmt.Fprintf(&b, "> %s\n", v.Action)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the View as text.
func (v View) String() string {
	var b strings.Builder
	_ = v.Render(&b)
	return b.String()
}
