package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/server"
)

var debugFlags struct {
	data       string
	dataFormat string
	expr       string
	format     string
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show each node's result for every rule",
	Long: `Render every rule, or an ad-hoc expression, with the result of each node.

Each node is shown as <name(args)=result>. A failing node shows its error
kind in place of the result; the rest of the tree is still rendered.

Examples:
  basicrules debug --rules pricing.yaml --data cart.json
  basicrules debug --expr '{equals: [{param: [foo]}, {constant: [1]}]}' --data in.yaml`,
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)

	debugCmd.Flags().StringVarP(&debugFlags.data, "data", "d", "", "input data file, or - for stdin")
	debugCmd.Flags().StringVar(&debugFlags.dataFormat, "data-format", "", "input format: yaml, json (default from extension)")
	debugCmd.Flags().StringVarP(&debugFlags.expr, "expr", "e", "", "debug an expression instead of the ruleset")
	debugCmd.Flags().StringVarP(&debugFlags.format, "format", "o", "text", "output format: text, json")
}

func runDebug(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(debugFlags.format)
	if err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, debugFlags.data, debugFlags.dataFormat)
	if err != nil {
		return cli.NewCommandError("debug", err)
	}
	out := formatter(cmd, format)

	if debugFlags.expr != "" {
		node, err := rules.ParseYAML([]byte(debugFlags.expr))
		if err != nil {
			return cli.NewCommandError("debug", fmt.Errorf("invalid expression: %w", err))
		}
		return out.FormatTo(cmd.OutOrStdout(), server.EvaluateExpression(node, data, true))
	}

	engine, err := newEngine(commandContext(cmd), cfg, logger)
	if err != nil {
		return cli.NewCommandError("debug", err)
	}
	traces, err := engine.Debug(data)
	if err != nil {
		return cli.NewCommandError("debug", err)
	}
	return out.FormatTo(cmd.OutOrStdout(), traces)
}
