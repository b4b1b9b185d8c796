// Command relocate runs the relocation engine from a terminal: it prints the
// region catalog, estimates a move, ranks regions for quiz answers and
// exports captured leads from the configured lead store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/relocator/internal/app"
	"github.com/okian/relocator/internal/config"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/pkg/logger"
)

// env carries what PersistentPreRunE prepared for the subcommands.
type env struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "relocate",
		Short:         "Relocation cost estimates and region matching",
		Long:          "Estimates the cost of moving to a region, ranks regions against lifestyle answers and exports captured leads.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(
				logger.WithLevel(cfg.LogLevel),
				logger.WithFormat(cfg.LogFormat),
				logger.WithWriter(cmd.ErrOrStderr()),
			)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg, e.log = cfg, log
			return nil
		},
	}
	root.AddCommand(
		newRegionsCmd(e),
		newEstimateCmd(e),
		newMatchCmd(e),
		newLeadsCmd(e),
		newStatsCmd(e),
	)
	return root
}

// engine builds a Service for the pure computations. It is never started:
// estimates and matches need neither stores nor mail.
func (e *env) engine() (*service.Service, error) {
	cat, err := service.LoadCatalog(e.cfg)
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(e.log),
		service.WithCatalog(cat),
		service.WithEstimator(estimate.New(service.EstimatorOptions(e.cfg)...)),
	), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "relocate: "+err.Error())
		os.Exit(1)
	}
}
