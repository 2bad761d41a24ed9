package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/ruleset"
)

var watchFlags struct {
	data       string
	dataFormat string
	format     string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate rules whenever rule files change",
	Long: `Load the ruleset, print a report for the input data, then reload and
print a new report every time a rule file changes.

A rule file that fails to decode is reported and the previous ruleset
stays active. Stop with Ctrl+C.

When telemetry.metrics.enabled is set, metrics and health endpoints are
served on telemetry.metrics.address.

Examples:
  basicrules watch --rules rules/ --data cart.json`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.data, "data", "d", "", "input data file")
	watchCmd.Flags().StringVar(&watchFlags.dataFormat, "data-format", "", "input format: yaml, json (default from extension)")
	watchCmd.Flags().StringVarP(&watchFlags.format, "format", "o", "text", "output format: text, json")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(watchFlags.format)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, watchFlags.data, watchFlags.dataFormat)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	obs, err := newObservability(cfg)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer obs.shutdown(logger)

	engine, err := newEngine(ctx, cfg, logger, obs.engineOptions()...)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	obs.checker.RegisterCheck("ruleset", engine.Ready)
	if cfg.Telemetry.Metrics.Enabled {
		obs.serveTelemetry(ctx, &cfg.Telemetry.Metrics, logger)
	}

	out := formatter(cmd, format)
	render := func() error {
		report, err := engine.Evaluate(ctx, data)
		if err != nil {
			return err
		}
		return out.FormatTo(cmd.OutOrStdout(), report)
	}
	if err := render(); err != nil {
		return cli.NewCommandError("watch", err)
	}

	watcher, err := ruleset.NewFileWatcher(ruleset.FileWatcherConfigFrom(cfg.Rules), logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer watcher.Stop()

	err = watcher.Watch(ctx, func() error {
		if err := engine.Reload(ctx); err != nil {
			return err
		}
		return render()
	})
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}
