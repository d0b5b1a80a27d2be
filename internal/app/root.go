package app

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the wakubase command tree. Running it without a
// subcommand starts the TUI.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "wakubase",
		Short: "Terminal client for a Waku relay node",
		Long: `wakubase manages content topics, watches their messages through a relay
node's REST API and publishes new ones, from a TUI or from the command line.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), *opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/wakubase/config.toml)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	root.AddCommand(
		newTUICommand(opts),
		newSettingsCommand(opts),
		newTopicsCommand(opts),
		newHealthCommand(opts),
		newSendCommand(opts),
		newWatchCommand(opts),
		newLogsCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newTUICommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), *opts)
		},
	}
}

// withServices bootstraps the application for a one-shot command. Log
// output is mirrored to stderr only when --log-level was given.
func withServices(cmd *cobra.Command, opts *Options, fn func(*Services) error) error {
	o := *opts
	if cmd.Flags().Changed("log-level") {
		o.Console = cmd.ErrOrStderr()
	}
	svc, err := Bootstrap(o)
	if err != nil {
		return err
	}
	runErr := fn(svc)
	if closeErr := svc.Close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}
