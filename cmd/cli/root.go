// Package cli is the command line entry point: the HTTP server and one-shot
// sync, ask, login and token reset commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"mail-assistant/pkg/config"
	"mail-assistant/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	logLevel string
	dev      bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mail-assistant",
		Short:         "Personal Gmail assistant: sync, semantic search and summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			level := opts.cfg.LogLevel
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			l, err := logger.New(level, opts.dev)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Log.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "human readable console logs")

	cmd.AddCommand(
		newServeCmd(opts),
		newSyncCmd(opts),
		newAskCmd(opts),
		newLoginCmd(opts),
		newResetTokenCmd(opts),
	)
	return cmd
}

func (o *rootOptions) build(ctx context.Context) (*App, error) {
	return Build(ctx, o.cfg, o.log)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
