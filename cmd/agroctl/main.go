// Command agroctl inspects and maintains the device storage used by the
// AssistenteZé Agro API, and exposes the field validators and the area
// estimator for scripting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/assistenteze/agro/internal/config"
	"github.com/assistenteze/agro/internal/logger"
	"github.com/assistenteze/agro/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	driver     string
	dataDir    string
	sqlitePath string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "agroctl",
		Short:         "AssistenteZé Agro maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return checkFormat(opts.output)
		},
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "storage driver: file|sqlite|postgres (default from STORAGE_DRIVER)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory for the file driver (default from DATA_DIR)")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", "", "database file for the sqlite driver")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "output format: text|json|yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newAreaCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newPropertiesCmd(opts))
	root.AddCommand(newSessionCmd(opts))
	return root
}

func (o *globalOptions) logger(cmd *cobra.Command) *logger.Logger {
	if !o.verbose {
		return logger.Nop()
	}
	return logger.NewWithWriter("development", cmd.ErrOrStderr())
}

// openStore resolves the configuration from the environment, applies flag
// overrides and opens the selected store.
func (o *globalOptions) openStore(cmd *cobra.Command) (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
		cfg.Storage.SQLitePath = ""
	}
	if o.sqlitePath != "" {
		cfg.Storage.SQLitePath = o.sqlitePath
	}
	cfg.ApplyDefaults()

	if cfg.Storage.Driver == config.DriverMemory {
		return nil, fmt.Errorf("the memory driver keeps no data between runs")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return storage.Open(cmd.Context(), cfg)
}
