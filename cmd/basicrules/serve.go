package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/server"
)

var serveFlags struct {
	listen string
	watch  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP evaluation service",
	Long: `Start an HTTP service that evaluates the configured ruleset.

Endpoints:
  POST /v1/evaluate               evaluate all rules, or {"rule": name}
  POST /v1/debug                  per-node debug traces
  GET  /v1/rules                  the ruleset in its representation form
  POST /v1/expressions/evaluate   evaluate an ad-hoc expression
  GET  /health, /ready, /version  health probes

Metrics are mounted on the service when telemetry.metrics.address equals
server.listen_address, and served on their own listener otherwise.

Examples:
  basicrules serve --rules rules/ --listen 127.0.0.1:8080 --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "override server.listen_address")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload rules when files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if serveFlags.listen != "" {
		cfg.Server.ListenAddress = serveFlags.listen
	}

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	obs, err := newObservability(cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer obs.shutdown(logger)

	engine, err := newEngine(ctx, cfg, logger, obs.engineOptions()...)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	obs.checker.RegisterCheck("ruleset", engine.Ready)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithHealth(obs.checker, obs.versionInfo()),
	}
	if cfg.Telemetry.Metrics.Enabled {
		if cfg.Telemetry.Metrics.Address == cfg.Server.ListenAddress {
			opts = append(opts, server.WithMetricsHandler(cfg.Telemetry.Metrics.Path, obs.collector.Handler()))
		} else {
			obs.serveTelemetry(ctx, &cfg.Telemetry.Metrics, logger)
		}
	}

	if cfg.Rules.Watch || serveFlags.watch {
		watcher, err := startWatcher(ctx, cfg, engine, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()
	}

	srv := server.NewServer(&cfg.Server, engine, opts...)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
