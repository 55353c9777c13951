package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ecosoul/internal/engine"
	"github.com/roach88/ecosoul/internal/harness"
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/observability"
	"github.com/roach88/ecosoul/internal/present"
	"github.com/roach88/ecosoul/internal/resource"
	"github.com/roach88/ecosoul/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Network      string // wallet network; defaults to the configured target
	Disconnected bool   // leave the wallet disconnected
	Journal      string // journal DSN; overrides the config file
	NextID       uint64 // identifier the simulated ledger mints first
	Metrics      bool   // print engine metrics after the session
}

// RecordStep is the outcome of one recorded activity.
type RecordStep struct {
	Activity  string       `json:"activity"`
	ErrorCode string       `json:"error_code,omitempty"`
	Error     string       `json:"error,omitempty"`
	View      present.View `json:"view"`
}

// RecordResult is the outcome of a record session.
type RecordResult struct {
	Steps   []RecordStep   `json:"steps"`
	Final   present.View   `json:"final"`
	Failed  int            `json:"failed"`
	Metrics []MetricSample `json:"metrics,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <activity>...",
		Short: "Record activities against a simulated ledger",
		Long: `Run one session against an in-memory ledger, recording each activity
in order. The first activity mints the eco-score token; later ones update it.

After every activity the current card is printed. Each cycle is journalled
to the configured SQLite DSN (in memory unless --journal or the config file
names a path).

Exit codes:
  0 - Every activity was confirmed
  1 - One or more cycles failed or were refused
  2 - Command error (bad config, journal not writable, etc.)

Examples:
  ecosoul record biking planting
  ecosoul record biking --network mainnet
  ecosoul record walking --config ecosoul.toml --journal session.db --metrics`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Network, "network", "", "wallet network (sepolia, mainnet or a chain id)")
	cmd.Flags().BoolVar(&opts.Disconnected, "disconnected", false, "do not connect the wallet")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal DSN (file path or :memory:)")
	cmd.Flags().Uint64Var(&opts.NextID, "next-id", 1, "token id the ledger mints first")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print engine metrics after the session")

	return cmd
}

func runRecord(ctx context.Context, opts *RecordOptions, activities []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	network := cfg.Network
	if opts.Network != "" {
		network, err = harness.ParseNetwork(opts.Network)
		if err != nil {
			_ = formatter.Error(ErrCodeSession, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --network", err)
		}
	}

	dsn := cfg.JournalDSN
	if opts.Journal != "" {
		dsn = opts.Journal
	}
	st, err := store.Open(dsn)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	last, err := st.LastSeq(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeSession, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.Metrics {
		if err := observability.Register(prometheus.DefaultRegisterer); err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
	}

	sim := ledger.NewSimulator(
		ledger.WithSimulatorSchema(cfg.Schema),
		ledger.WithNetwork(network),
		ledger.WithNextIdentifier(ledger.Identifier(opts.NextID)),
	)
	deps := engine.DepsFor(sim, cfg.Schema, cfg.Network,
		resource.WithCatalog(cfg.Catalog),
		resource.WithWeather(resource.FixedWeather(cfg.Weather)),
	)
	eng := engine.New(deps, cfg.Network,
		engine.WithJournal(st),
		engine.WithClock(engine.NewClockAt(last)),
		engine.WithConfirmationTimeout(cfg.ConfirmationTimeout),
	)
	adapter := present.New(eng, sim)

	if !opts.Disconnected {
		sess, err := adapter.Connect(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeSession, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to connect wallet", err)
		}
		formatter.VerboseLog("Connected %s on %s", sess.Account, sess.Network)
	}

	result := RecordResult{Steps: make([]RecordStep, 0, len(activities))}
	w := cmd.OutOrStdout()
	var lastErr *engine.ErrorInfo

	for _, label := range activities {
		step := RecordStep{Activity: label}
		if err := eng.Do(ctx, label); err != nil {
			var info *engine.ErrorInfo
			if !errors.As(err, &info) {
				return WrapExitError(ExitCommandError, "session aborted", err)
			}
			step.ErrorCode = string(info.Code)
			step.Error = info.Message
			result.Failed++
			lastErr = info
		}
		step.View = adapter.View()
		result.Steps = append(result.Steps, step)

		if opts.Format != "json" {
			fmt.Fprintf(w, "$ record %s\n", label)
			if err := step.View.Render(w); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
	}
	result.Final = adapter.View()

	if opts.Metrics {
		samples, err := gatherMetrics(prometheus.DefaultGatherer, metricPrefix)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
		result.Metrics = samples
		if opts.Format != "json" {
			writeMetrics(w, samples)
		}
	}

	if lastErr != nil {
		msg := fmt.Sprintf("%d of %d cycle(s) failed", result.Failed, len(activities))
		if err := formatter.Failure(result, string(lastErr.Code), lastErr.Message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return nil
}
