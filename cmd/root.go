package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/byxorna/orderpane/pkg/backend"
	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flags = struct {
		ConfigFile string
		LogFile    string
		Verbose    bool
	}{}

	// set up by the root command before any subcommand runs
	cfg *config.Config
	log *zap.Logger

	root = &cobra.Command{
		Use:           "orderpane [pane]",
		Short:         "Orderpane reorders CMS documents by hand",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(flags.ConfigFile)
			if err != nil {
				return err
			}

			logFile := cfg.Log.File
			if flags.LogFile != "" {
				logFile = flags.LogFile
			}
			log, err = logging.New(cfg.Log.Level, logFile, flags.Verbose)
			if err != nil {
				return err
			}
			log.Debug("loaded config", zap.String("file", flags.ConfigFile), zap.String("backend", string(cfg.Backend)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
		RunE: runTUI,
	}
)

func init() {
	root.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "~/.orderpane.yaml", "configuration file")
	root.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "log file (defaults to the xdg cache dir)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(tuiCmd, listCmd, moveCmd, placeCmd, normalizeCmd, statusCmd, seedCmd)
}

// openBackend connects to the configured storage provider. The caller closes
// it.
func openBackend(ctx context.Context) (db.Backend, error) {
	b, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s backend: %w", cfg.Backend, err)
	}
	log.Info("opened backend", zap.String("name", b.Name()))
	return b, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
