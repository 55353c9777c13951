// Package config loads ecosoul configuration files.
//
// Files are YAML or TOML, chosen by extension. The decoded document is
// validated against an embedded CUE schema before defaults are applied.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ecosoul/internal/activity"
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/schema"
	"github.com/roach88/ecosoul/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Config is a validated configuration with defaults applied.
type Config struct {
	Network             ledger.Network
	Schema              schema.Schema
	Catalog             *activity.Catalog
	Weather             ledger.Weather
	ConfirmationTimeout time.Duration // zero waits indefinitely
	JournalDSN          string
}

// File is the on-disk document.
type File struct {
	Network             *NetworkFile        `yaml:"network" toml:"network"`
	Contract            *ContractFile       `yaml:"contract" toml:"contract"`
	Activities          []activity.Activity `yaml:"activities" toml:"activities"`
	Weather             string              `yaml:"weather" toml:"weather"`
	ConfirmationTimeout string              `yaml:"confirmation_timeout" toml:"confirmation_timeout"`
	Journal             string              `yaml:"journal" toml:"journal"`
}

// NetworkFile names the target network.
type NetworkFile struct {
	ChainID int64  `yaml:"chain_id" toml:"chain_id"`
	Name    string `yaml:"name" toml:"name"`
}

// ContractFile overrides parts of the resource schema.
type ContractFile struct {
	Address         string `yaml:"address" toml:"address"`
	ReadMethod      string `yaml:"read_method" toml:"read_method"`
	CreateMethod    string `yaml:"create_method" toml:"create_method"`
	UpdateMethod    string `yaml:"update_method" toml:"update_method"`
	CreatedEvent    string `yaml:"created_event" toml:"created_event"`
	UpdatedEvent    string `yaml:"updated_event" toml:"updated_event"`
	IdentifierField string `yaml:"identifier_field" toml:"identifier_field"`
	WithActivity    *bool  `yaml:"with_activity" toml:"with_activity"`
}

// Error is a configuration error tied to a file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Default reproduces the deployed EcoSoul setup: the Sepolia contract, the
// built-in activity catalogue, sunny weather, no confirmation deadline and
// an in-memory journal.
func Default() Config {
	return Config{
		Network:    ledger.Sepolia,
		Schema:     schema.Default(),
		Catalog:    activity.DefaultCatalog(),
		Weather:    ledger.WeatherSunny,
		JournalDSN: store.MemoryDSN,
	}
}

// Load reads, validates and resolves the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(data, Format(path))
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
			return Config{}, ce
		}
		return Config{}, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Format returns "yaml" or "toml" based on the extension of path.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}

// Parse decodes data in the given format, validates and resolves it.
func Parse(data []byte, format string) (Config, error) {
	var (
		doc  map[string]any
		file File
	)
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Config{}, &Error{Err: fmt.Errorf("parse yaml: %w", err)}
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, &Error{Err: fmt.Errorf("decode yaml: %w", err)}
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return Config{}, &Error{Err: fmt.Errorf("parse toml: %w", err)}
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return Config{}, &Error{Err: fmt.Errorf("decode toml: %w", err)}
		}
	default:
		return Config{}, &Error{Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
	}

	if err := Validate(doc); err != nil {
		return Config{}, &Error{Err: err}
	}
	cfg, err := file.Resolve()
	if err != nil {
		return Config{}, &Error{Err: err}
	}
	return cfg, nil
}

// Validate checks a decoded document against the embedded CUE schema.
func Validate(doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	ctx := cuecontext.New()
	def := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := def.Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Resolve applies defaults to f.
func (f File) Resolve() (Config, error) {
	cfg := Default()

	if f.Network != nil {
		cfg.Network = resolveNetwork(*f.Network)
	}
	if f.Contract != nil {
		cfg.Schema = f.Contract.apply(cfg.Schema)
		if err := cfg.Schema.Validate(); err != nil {
			return Config{}, err
		}
	}
	if len(f.Activities) > 0 {
		c, err := activity.NewCatalog(f.Activities)
		if err != nil {
			return Config{}, fmt.Errorf("activities: %w", err)
		}
		cfg.Catalog = c
	}
	if f.Weather != "" {
		cfg.Weather = ledger.ParseWeather(f.Weather)
	}
	if f.ConfirmationTimeout != "" {
		d, err := time.ParseDuration(f.ConfirmationTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("confirmation_timeout: %w", err)
		}
		cfg.ConfirmationTimeout = d
	}
	if f.Journal != "" {
		cfg.JournalDSN = f.Journal
	}
	return cfg, nil
}

func resolveNetwork(n NetworkFile) ledger.Network {
	known := []ledger.Network{ledger.Sepolia, ledger.Mainnet}
	out := ledger.Sepolia
	if n.ChainID != 0 {
		out = ledger.Network{ID: ledger.ChainID(n.ChainID), Name: fmt.Sprintf("chain %d", n.ChainID)}
		for _, k := range known {
			if k.ID == out.ID {
				out = k
			}
		}
	}
	if n.Name != "" {
		out.Name = n.Name
	}
	return out
}

func (c ContractFile) apply(s schema.Schema) schema.Schema {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.Address, c.Address)
	set(&s.ReadMethod, c.ReadMethod)
	set(&s.CreateMethod, c.CreateMethod)
	set(&s.UpdateMethod, c.UpdateMethod)
	set(&s.CreatedEvent, c.CreatedEvent)
	set(&s.UpdatedEvent, c.UpdatedEvent)
	set(&s.IdentifierField, c.IdentifierField)
	if c.WithActivity != nil {
		s.WithActivity = *c.WithActivity
	}
	return s
}
