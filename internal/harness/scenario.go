package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ecosoul/internal/ledger"
)

// Scenario is one end-to-end run of the engine against a simulated ledger.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an optional config file, relative to the scenario file.
	Config string `yaml:"config,omitempty"`

	// Ledger sets up the simulator.
	Ledger LedgerSetup `yaml:"ledger"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// LedgerSetup configures the simulated ledger.
type LedgerSetup struct {
	// Network is "sepolia", "mainnet" or a chain id. Defaults to the
	// configured target network.
	Network string `yaml:"network,omitempty"`

	// Connected opens the wallet session before the first step.
	Connected bool `yaml:"connected"`

	// NextIdentifier is the token id the next create will mint.
	NextIdentifier uint64 `yaml:"next_identifier,omitempty"`

	// Timestamp is the first lastUpdate value; Tick advances it per write.
	Timestamp int64 `yaml:"timestamp,omitempty"`
	Tick      int64 `yaml:"tick,omitempty"`
}

// Step is a single scenario step. Exactly one action field is set.
type Step struct {
	Record        string  `yaml:"record,omitempty"`
	Connect       bool    `yaml:"connect,omitempty"`
	Disconnect    bool    `yaml:"disconnect,omitempty"`
	SwitchNetwork string  `yaml:"switch_network,omitempty"`
	RejectNext    string  `yaml:"reject_next,omitempty"`
	RevertNext    string  `yaml:"revert_next,omitempty"`
	FailReads     *string `yaml:"fail_reads,omitempty"` // empty string clears
	Weather       string  `yaml:"weather,omitempty"`

	// Expect checks the outcome of a record step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Action names the step's action.
func (s Step) Action() string {
	var actions []string
	if s.Record != "" {
		actions = append(actions, "record")
	}
	if s.Connect {
		actions = append(actions, "connect")
	}
	if s.Disconnect {
		actions = append(actions, "disconnect")
	}
	if s.SwitchNetwork != "" {
		actions = append(actions, "switch_network")
	}
	if s.RejectNext != "" {
		actions = append(actions, "reject_next")
	}
	if s.RevertNext != "" {
		actions = append(actions, "revert_next")
	}
	if s.FailReads != nil {
		actions = append(actions, "fail_reads")
	}
	if s.Weather != "" {
		actions = append(actions, "weather")
	}
	return strings.Join(actions, ",")
}

// ExpectClause checks a record step.
type ExpectClause struct {
	// Error is the expected error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// State is a subset match on the view after the step.
	State map[string]any `yaml:"state,omitempty"`
}

// Assertion validates the trace, the final view or the journal.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// From and To select transitions (trace_contains, trace_count).
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Detail is a subset match on a transition's detail (trace_contains).
	Detail map[string]any `yaml:"detail,omitempty"`

	// Phases is the expected order of target phases (trace_order).
	Phases []string `yaml:"phases,omitempty"`

	// Count is the expected number of matches (trace_count, submission_count).
	Count int `yaml:"count,omitempty"`

	// Table is "view" or a journal table (final_state).
	Table string `yaml:"table,omitempty"`

	// Where filters journal rows (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is a subset match on the selected row (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains   = "trace_contains"
	AssertTraceOrder      = "trace_order"
	AssertTraceCount      = "trace_count"
	AssertFinalState      = "final_state"
	AssertSubmissionCount = "submission_count"
)

// TableView selects the engine view in final_state assertions.
const TableView = "view"

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected. A relative Config path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	if scenario.Config != "" {
		if _, err := os.Stat(scenario.Config); err != nil {
			return nil, fmt.Errorf("invalid scenario: config file: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Ledger.Network != "" {
		if _, err := ParseNetwork(s.Ledger.Network); err != nil {
			return fmt.Errorf("ledger.network: %w", err)
		}
	}

	for i, step := range s.Steps {
		action := step.Action()
		switch {
		case action == "":
			return fmt.Errorf("steps[%d]: an action is required", i)
		case strings.Contains(action, ","):
			return fmt.Errorf("steps[%d]: exactly one action allowed, got %s", i, action)
		}
		if step.Expect != nil && step.Record == "" {
			return fmt.Errorf("steps[%d]: expect is only valid on record steps", i)
		}
		if step.SwitchNetwork != "" {
			if _, err := ParseNetwork(step.SwitchNetwork); err != nil {
				return fmt.Errorf("steps[%d].switch_network: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.To == "" {
			return fmt.Errorf("assertions[%d]: to is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Phases) == 0 {
			return fmt.Errorf("assertions[%d]: phases list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.To == "" {
			return fmt.Errorf("assertions[%d]: to is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertSubmissionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for submission_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if a.Table == TableView && len(a.Where) > 0 {
			return fmt.Errorf("assertions[%d]: where is not supported on the view", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// ParseNetwork accepts "sepolia", "mainnet" or a decimal chain id.
func ParseNetwork(raw string) (ledger.Network, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sepolia":
		return ledger.Sepolia, nil
	case "mainnet", "ethereum":
		return ledger.Mainnet, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return ledger.Network{}, fmt.Errorf("unknown network %q", raw)
	}
	for _, n := range []ledger.Network{ledger.Sepolia, ledger.Mainnet} {
		if n.ID == ledger.ChainID(id) {
			return n, nil
		}
	}
	return ledger.Network{ID: ledger.ChainID(id), Name: fmt.Sprintf("chain %d", id)}, nil
}
