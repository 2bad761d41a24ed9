package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string

	rootFlags struct {
		rules     string
		logLevel  string
		logFormat string
		noColor   bool
	}
)

var rootCmd = &cobra.Command{
	Use:   "basicrules",
	Short: "basicrules - rule-expression engine",
	Long: `basicrules evaluates rule-expression trees against structured data.

Rules are trees of composable functions stored as YAML or JSON documents:

  name: pricing
  rules:
    - name: discount
      expression:
        and:
          - {param: [user.member]}
          - {gte: [{param: [cart.total]}, 100]}

Configuration is read from the config file (default basicrules.yaml, optional)
and BASICRULES_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	registerCompletions()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "basicrules.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.rules, "rules", "r", "", "override rule file or directory")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "", "override log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.noColor, "no-color", false, "disable colored output")
}

// setup loads the configuration, applies flag overrides and builds the
// logger. Logs go to stderr so that command output stays parseable.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if rootFlags.rules != "" {
		cfg.Rules.Path = rootFlags.rules
	}
	if rootFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Telemetry.Logging.Format = rootFlags.logFormat
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// commandContext returns the command context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// formatter returns the output formatter for the command's stdout.
func formatter(cmd *cobra.Command, format cli.OutputFormat) cli.Formatter {
	return cli.NewTerminalFormatter(format, cmd.OutOrStdout(), rootFlags.noColor)
}

// newEngine creates an engine over the configured rule source and loads it.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ruleset.Option) (*ruleset.Engine, error) {
	source := ruleset.NewFileSource(ruleset.FileSourceConfigFrom(cfg.Rules), nil)

	opts = append([]ruleset.Option{
		ruleset.WithLogger(logger),
		ruleset.WithStopOnError(cfg.Rules.StopOnError),
	}, opts...)

	engine := ruleset.NewEngine(source, opts...)
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

// readInput reads evaluation data from path, or stdin for "-". An empty
// path yields an empty object. The format defaults to the file extension.
func readInput(cmd *cobra.Command, path, format string) (any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input %q: %w", path, err)
	}

	f := ruleset.FormatFromPath(path)
	if format != "" {
		if f, err = ruleset.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	v, err := ruleset.ParseDocument(data, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %q: %w", path, err)
	}
	if v == nil {
		return map[string]any{}, nil
	}
	return v, nil
}
