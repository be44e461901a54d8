// Command kerf evaluates part scripts and answers geometric queries about
// the cuts in them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel/polytope"
	"github.com/chazu/kerf/pkg/query"
	"github.com/chazu/kerf/pkg/scene"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags and the environment
// have been read.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	engine *engine.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	var (
		seed   uint64
		format string
	)

	root := &cobra.Command{
		Use:          "kerf",
		Short:        "Query cut locations and redundant cuts in part scripts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("format") {
				cfg.Format = format
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			a.engine = engine.NewEngine(engine.WithLogger(logger.Named("engine")))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().Uint64Var(&seed, "seed", 1, "seed for the ray direction generator (overrides KERF_SEED)")
	root.PersistentFlags().StringVarP(&format, "format", "f", "json", "output format, json or yaml (overrides KERF_FORMAT)")

	root.AddCommand(
		newReportCmd(a),
		newMeshCmd(a),
		newInsideCmd(a),
	)
	return root
}

// load reads and evaluates a script.
func (a *app) load(path string) (*scene.Scene, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	s, evalErrs, err := a.engine.Evaluate(string(source))
	if err != nil {
		a.logger.Error("evaluation failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	a.logger.Debug("script evaluated", zap.String("path", path), zap.Int("parts", s.PartCount()))
	return s, nil
}

// querier returns a Querier over a polytope kernel configured from a.cfg.
func (a *app) querier() *query.Querier {
	k := polytope.New(polytope.WithTolerance(a.cfg.Tolerance))
	return query.New(k,
		query.WithRand(geom.NewRand(a.cfg.Seed)),
		query.WithOptions(a.cfg.QueryOptions()),
		query.WithLogger(a.logger.Named("query")))
}
