package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier names one token on the ledger. It is assigned by the ledger
// when a create is finalized and learned only from the emitted event.
type Identifier uint64

func (id Identifier) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Weather is the weather reading attached to a token.
type Weather string

const (
	WeatherSunny Weather = "sunny"
	WeatherRainy Weather = "rainy"
	WeatherOther Weather = "other"
)

// ParseWeather maps a raw ledger string onto the Weather enum.
// Anything other than sunny or rainy is WeatherOther.
func ParseWeather(raw string) Weather {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(WeatherSunny):
		return WeatherSunny
	case string(WeatherRainy):
		return WeatherRainy
	default:
		return WeatherOther
	}
}

// ResourceRecord is one read of a token's authoritative state.
// Records are immutable snapshots: a new read produces a new value.
type ResourceRecord struct {
	EcoScore     uint64
	Weather      Weather
	LastUpdate   int64 // unix seconds
	LastActivity *string
}

// Activity returns the record's last activity, or "" when the schema
// variant does not carry one.
func (r *ResourceRecord) Activity() string {
	if r == nil || r.LastActivity == nil {
		return ""
	}
	return *r.LastActivity
}

// ChainID identifies a network.
type ChainID int64

// Network is the active network reported by the client.
type Network struct {
	ID   ChainID
	Name string
}

func (n Network) String() string {
	if n.Name == "" {
		return fmt.Sprintf("chain %d", n.ID)
	}
	return n.Name
}

// Well-known networks.
var (
	Mainnet = Network{ID: 1, Name: "Ethereum"}
	Sepolia = Network{ID: 11155111, Name: "Sepolia"}
)

// Session is an active connection: the connected account and the network
// it is currently pointed at.
type Session struct {
	Account string
	Network Network
}

// SubmissionHash is the ledger's handle for a submitted mutation.
type SubmissionHash string

// ReceiptStatus is the finalized outcome of a submission.
type ReceiptStatus int

const (
	ReceiptSuccess ReceiptStatus = iota + 1
	ReceiptReverted
)

func (s ReceiptStatus) String() string {
	switch s {
	case ReceiptSuccess:
		return "success"
	case ReceiptReverted:
		return "reverted"
	default:
		return fmt.Sprintf("ReceiptStatus(%d)", int(s))
	}
}

// Event is a decoded log emitted by a finalized submission.
type Event struct {
	Name   string
	Fields Values
}

// Receipt is the finalized result of a submission.
type Receipt struct {
	Hash   SubmissionHash
	Status ReceiptStatus
	Events []Event
	Reason string // revert reason, if any
}

// FindEvent returns the first event with the given name.
func (r Receipt) FindEvent(name string) (Event, bool) {
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// Values holds decoded method outputs or event fields keyed by ABI name.
type Values map[string]any
