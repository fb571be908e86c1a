package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstehr/pitch/pitch-core/config"
	"github.com/nstehr/pitch/pitch-core/simulator"
	"github.com/nstehr/pitch/pitch-core/telemetry"
)

type simulateOptions struct {
	configPath string
	record     string
	seed       uint64
	verbose    bool
}

func (a *App) newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.lua>...",
		Short: "Run scripted scenarios against the decision core",
		Long: `Run Lua scenario scripts against a fresh scheduler and referee reporter
on a simulated clock. The command fails if any expectation in any script
does not hold.

Examples:
  # Run every scenario in a directory
  pitch simulate scenarios/*.lua

  # Use a config file and record every decision
  pitch simulate -c pitch.yaml --record sim.db scenarios/kick_off.lua`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.simulate(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.record, "record", "", "SQLite file to record decisions and reports into")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "Seed for the random hand-signal classifier")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print action counts per scenario")

	return cmd
}

func (a *App) simulate(ctx context.Context, opts *simulateOptions, paths []string) error {
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath, rt)
	if err != nil {
		return err
	}
	cfg.Referee.Seed = opts.seed

	var recorder *telemetry.Recorder
	if opts.record != "" {
		recorder, err = telemetry.OpenRecorder(opts.record)
		if err != nil {
			return fmt.Errorf("open recorder: %w", err)
		}
		defer recorder.Close()
	}

	failed := 0
	for _, path := range paths {
		scenario, err := simulator.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		res, err := simulator.Run(ctx, scenario, simulator.Options{Config: cfg, Recorder: recorder})
		if err != nil {
			return fmt.Errorf("%s: %w", scenario.Name, err)
		}

		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(a.stdout, "%s %s (%d cycles, %s, %d reports)\n",
			status, res.Name, res.Cycles, res.Elapsed, len(res.Reports))
		for _, f := range res.Failures {
			fmt.Fprintf(a.stdout, "    %s\n", f)
		}
		if opts.verbose {
			for action, n := range res.Actions {
				fmt.Fprintf(a.stdout, "    %-22s %d\n", action, n)
			}
		}
		if res.RunID != "" {
			fmt.Fprintf(a.stdout, "    run %s\n", res.RunID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}
