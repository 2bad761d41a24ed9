package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/server"
)

var evalFlags struct {
	data       string
	dataFormat string
	expr       string
	rule       string
	format     string
	strict     bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate rules against input data",
	Long: `Evaluate every rule of the configured ruleset, a single rule, or an
ad-hoc expression against input data.

Rule failures such as a division by zero are reported per rule and do not
fail the command unless --strict is set, in which case the exit status is 2.

Examples:
  # Evaluate all rules against a JSON file
  basicrules eval --rules pricing.yaml --data cart.json

  # Read input from stdin
  cat cart.json | basicrules eval --data -

  # Evaluate one rule
  basicrules eval --rule discount --data cart.yaml

  # Evaluate an expression in its representation form
  basicrules eval --expr '{gte: [{param: [cart.total]}, 100]}' --data cart.json

  # JSON output, failing on rule errors
  basicrules eval --data cart.json --format json --strict`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.data, "data", "d", "", "input data file, or - for stdin")
	evalCmd.Flags().StringVar(&evalFlags.dataFormat, "data-format", "", "input format: yaml, json (default from extension)")
	evalCmd.Flags().StringVarP(&evalFlags.expr, "expr", "e", "", "evaluate an expression instead of the ruleset")
	evalCmd.Flags().StringVar(&evalFlags.rule, "rule", "", "evaluate a single named rule")
	evalCmd.Flags().StringVarP(&evalFlags.format, "format", "o", "text", "output format: text, json")
	evalCmd.Flags().BoolVar(&evalFlags.strict, "strict", false, "exit with status 2 when a rule fails")
}

func runEval(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(evalFlags.format)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, evalFlags.data, evalFlags.dataFormat)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	out := formatter(cmd, format)

	if evalFlags.expr != "" {
		node, err := rules.ParseYAML([]byte(evalFlags.expr))
		if err != nil {
			return cli.NewCommandError("eval", fmt.Errorf("invalid expression: %w", err))
		}
		res := server.EvaluateExpression(node, data, false)
		if err := out.FormatTo(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if evalFlags.strict && res.Kind != "" {
			return cli.NewCommandError("eval", fmt.Errorf("expression raised %s: %w", res.Kind, cli.ErrRulesFailed))
		}
		return nil
	}

	ctx := commandContext(cmd)
	engine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	if evalFlags.rule != "" {
		res, err := engine.EvaluateRule(ctx, evalFlags.rule, data)
		if err != nil {
			return cli.NewCommandError("eval", err)
		}
		if err := out.FormatTo(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if evalFlags.strict && res.Outcome == ruleset.OutcomeError {
			return cli.NewCommandError("eval", fmt.Errorf("rule %q raised %s: %w", res.Rule, res.Kind, cli.ErrRulesFailed))
		}
		return nil
	}

	report, err := engine.Evaluate(ctx, data)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	if err := out.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if failed := report.Failed(); evalFlags.strict && len(failed) > 0 {
		return cli.NewCommandError("eval", fmt.Errorf("%d rule(s) failed: %w", len(failed), cli.ErrRulesFailed))
	}
	return nil
}
