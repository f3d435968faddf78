// quakematch records one seismic event notification and matches it against
// detections already stored by the detection pipeline. It is invoked once per
// notification by the event indexer.
//
// Usage:
//
//	quakematch --action EVENT_ADDED --source us --code us2020abcd \
//	  --preferred-id us2020abcd --preferred-eventtime 2020-01-01T00:00:00.000Z \
//	  --preferred-latitude 10.0 --preferred-longitude 20.0 \
//	  --preferred-depth 10.0 --preferred-magnitude 5.0
//
// Settings come from an optional --config file and QUAKEMATCH_* environment
// variables. Flags the indexer passes that quakematch does not know are ignored.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/quake-match/internal/domain"
	"github.com/couchcryptid/quake-match/internal/pipeline"
)

var version = "dev"

// options carries everything parsed from the command line.
type options struct {
	notification domain.Notification
	configPath   string
	strict       bool
}

type runFunc func(ctx context.Context, opts options) int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], run)
	stop()
	os.Exit(code)
}

// execute parses args and hands them to fn, returning the process exit code.
func execute(ctx context.Context, args []string, fn runFunc) int {
	code := pipeline.ExitOK
	cmd := rootCmd(func(ctx context.Context, opts options) int {
		code = fn(ctx, opts)
		return code
	})
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return pipeline.ExitConfiguration
	}
	return code
}

func rootCmd(fn runFunc) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "quakematch",
		Short: "Record a seismic event and match it to a stored detection",
		Long: `quakematch normalizes one event notification, stores it as an event row
and links it to the earliest detection in the 180 second window after the
event, provided the detection lies within 4 degrees of the epicenter.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// The indexer passes its full argument set; only some of it is ours.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fn(cmd.Context(), opts)
			return nil
		},
	}

	f := cmd.Flags()
	n := &opts.notification
	f.StringVar(&n.Action, "action", "", "indexer action, e.g. EVENT_ADDED")
	f.StringVar(&n.Source, "source", "", "network that contributed the product")
	f.StringVar(&n.Code, "code", "", "event code carried by the product")
	f.StringVar(&n.PreferredID, "preferred-id", "", "preferred event id")
	f.StringVar(&n.PreferredEventTime, "preferred-eventtime", "", "origin time, e.g. 2020-01-01T00:00:00.000Z")
	f.StringVar(&n.PreferredLatitude, "preferred-latitude", "", "epicenter latitude in degrees")
	f.StringVar(&n.PreferredLongitude, "preferred-longitude", "", "epicenter longitude in degrees")
	f.StringVar(&n.PreferredDepth, "preferred-depth", "", "hypocenter depth in km")
	f.StringVar(&n.PreferredMagnitude, "preferred-magnitude", "", "preferred magnitude")
	f.StringVar(&opts.configPath, "config", "", "config file (yaml, json, toml or ini)")
	f.BoolVar(&opts.strict, "strict-exit", false, "exit non-zero for discarded and failed notifications")

	return cmd
}
