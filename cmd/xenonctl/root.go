package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/bootstrap"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/config"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/logger"
)

// app carries the services shared by the subcommands
type app struct {
	configPath string
	verbose    bool
	services   *bootstrap.Container
}

// newRootCmd builds the command tree. The caller closes a after execution.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "xenonctl",
		Short:         "Manage the Xenon parts catalog from the command line",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newTemplateCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newLoginCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if a.verbose {
		log, err = logger.New(&logger.Config{
			Level:      cfg.Log.Level,
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "15:04:05.000",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	a.services, err = bootstrap.New(cmd.Context(), cfg, log)
	return err
}

func (a *app) close() error {
	if a.services == nil {
		return nil
	}
	_ = a.services.Logger.Sync()
	err := a.services.Close()
	a.services = nil
	return err
}

func entityArg(s string) (catalog.Entity, error) {
	return catalog.ParseEntity(s)
}
