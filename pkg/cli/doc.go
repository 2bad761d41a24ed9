/*
Package cli provides command-line interface utilities for basicrules.

The cli package includes output formatters, error types, and signal
handling used by the basicrules command.

Output Formatting:

Evaluation reports and debug traces are rendered as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Values implementing TextRenderer control their own text rendering.

Exit Codes:

ExitCode maps a command error to the process exit status. Failed rules
surface as ErrRulesFailed and exit with 2, a ConfigError exits with 3 and
anything else with 1.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
