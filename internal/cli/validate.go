package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ecosoul/internal/config"
)

// ValidationResult describes a validated config file.
type ValidationResult struct {
	Valid               bool   `json:"valid"`
	Path                string `json:"path"`
	Network             string `json:"network,omitempty"`
	ChainID             int64  `json:"chain_id,omitempty"`
	Contract            string `json:"contract,omitempty"`
	WithActivity        bool   `json:"with_activity"`
	Activities          int    `json:"activities"`
	Weather             string `json:"weather,omitempty"`
	ConfirmationTimeout string `json:"confirmation_timeout,omitempty"`
	Journal             string `json:"journal,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a config file",
		Long: `Decode a YAML or TOML config file, check it against the config schema
and report the resolved settings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		if opts.Format == "json" {
			if err := formatter.Failure(ValidationResult{Path: path}, ErrCodeConfig, err.Error()); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			fmt.Fprintf(formatter.Writer, "  %v\n", err)
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	res := ValidationResult{
		Valid:        true,
		Path:         path,
		Network:      cfg.Network.Name,
		ChainID:      int64(cfg.Network.ID),
		Contract:     cfg.Schema.Address,
		WithActivity: cfg.Schema.WithActivity,
		Activities:   len(cfg.Catalog.All()),
		Weather:      string(cfg.Weather),
		Journal:      cfg.JournalDSN,
	}
	if cfg.ConfirmationTimeout > 0 {
		res.ConfirmationTimeout = cfg.ConfirmationTimeout.String()
	}

	if opts.Format == "json" {
		return formatter.Success(res)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	fmt.Fprintf(w, "  network:    %s (%d)\n", res.Network, res.ChainID)
	fmt.Fprintf(w, "  contract:   %s\n", res.Contract)
	fmt.Fprintf(w, "  activities: %d\n", res.Activities)
	formatter.VerboseLog("weather=%s timeout=%s journal=%s", res.Weather, res.ConfirmationTimeout, res.Journal)
	return nil
}
