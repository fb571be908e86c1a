package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstehr/pitch/pitch-core/behavior"
	"github.com/nstehr/pitch/pitch-core/config"
)

type validateOptions struct {
	configPath string
}

func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a pitch configuration file.

This command checks:
  - File format (YAML or JSON)
  - Field dimensions and player number
  - Behavior timings and injection rule expressions
  - Referee reporting window, transmit delay and classifier

Examples:
  pitch validate -c pitch.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath, rt)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	// Injection conditions only compile once the scheduler is built.
	if _, err := behavior.NewScheduler(cfg.Behavior, cfg.Field); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Configuration is valid: %s\n", opts.configPath)
	fmt.Fprintf(a.stdout, "  Player: %d\n", cfg.PlayerNumber)
	fmt.Fprintf(a.stdout, "  Injections: %d\n", len(cfg.Behavior.Injections))
	fmt.Fprintf(a.stdout, "  Referee window: %s (classifier %s)\n", cfg.Referee.ReportingWindow, cfg.Referee.Classifier)
	return nil
}
