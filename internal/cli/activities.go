package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ActivityEntry is one row of the activities listing.
type ActivityEntry struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Multiplier uint64 `json:"multiplier"`
	Score      uint64 `json:"score"`
}

// NewActivitiesCommand creates the activities command.
func NewActivitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "activities",
		Short:         "List the activity catalogue",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivities(rootOpts, cmd)
		},
	}
}

func runActivities(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	entries := make([]ActivityEntry, 0, len(cfg.Catalog.All()))
	for _, a := range cfg.Catalog.All() {
		entries = append(entries, ActivityEntry{
			ID:         a.ID,
			Label:      a.Label,
			Multiplier: a.Multiplier,
			Score:      a.Score(),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tMULTIPLIER\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%d\n", e.ID, e.Label, e.Multiplier, e.Score)
	}
	return tw.Flush()
}
