package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/ruleset"
)

var lintFlags struct {
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and structural errors.

The lint command decodes every rule file and reports:
  - YAML and JSON syntax errors
  - Unknown document keys, missing rule names and expressions
  - Unknown node names and arity violations
  - Duplicate rule names, within a file and across a directory

Without arguments the configured rules path is linted.

Examples:
  # Lint the configured rules
  basicrules lint

  # Lint a file and a directory
  basicrules lint pricing.yaml rules/

  # JSON output for CI/CD
  basicrules lint rules/ --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.format, "format", "o", "text", "output format: text, json")
}

// LintResult represents the validation result for a single rule file.
type LintResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Rules  int      `json:"rules"`
	Errors []string `json:"errors,omitempty"`
}

// LintReport is the output of the lint command.
type LintReport struct {
	Results []LintResult `json:"results"`
	Errors  int          `json:"errors"`
}

func lintRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(lintFlags.format)
	if err != nil {
		return err
	}
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.Rules.Path}
	}

	report := &LintReport{}
	for _, path := range paths {
		report.Results = append(report.Results, lintPath(cmd, cfg.Rules, path)...)
	}
	for _, r := range report.Results {
		report.Errors += len(r.Errors)
	}

	if err := formatter(cmd, format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Errors > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
	}
	return nil
}

// lintPath validates each file below path on its own, then the merged
// load to catch duplicates across files.
func lintPath(cmd *cobra.Command, rulesCfg config.RulesConfig, path string) []LintResult {
	rulesCfg.Path = path
	source := ruleset.NewFileSource(ruleset.FileSourceConfigFrom(rulesCfg), nil)

	files, err := source.Files()
	if err != nil {
		return []LintResult{{File: path, Errors: errorMessages(err)}}
	}
	if len(files) == 0 {
		return []LintResult{{File: path, Errors: []string{"no rule files found"}}}
	}

	results := make([]LintResult, 0, len(files)+1)
	allValid := true
	for _, file := range files {
		result := LintResult{File: file, Valid: true}
		set, err := source.LoadFile(file)
		if err != nil {
			result.Valid = false
			result.Errors = errorMessages(err)
			allValid = false
		} else {
			result.Rules = set.Len()
		}
		results = append(results, result)
	}

	if allValid && len(files) > 1 {
		if _, err := source.Load(commandContext(cmd)); err != nil {
			results = append(results, LintResult{File: path, Errors: errorMessages(err)})
		}
	}
	return results
}

// errorMessages flattens an ErrorList into one message per error.
func errorMessages(err error) []string {
	var list *ruleset.ErrorList
	if errors.As(err, &list) {
		msgs := make([]string, 0, len(list.Errors))
		for _, e := range list.Errors {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

// RenderText writes the report in the human-readable lint format.
func (r *LintReport) RenderText(w io.Writer) error {
	for _, result := range r.Results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)
		if len(result.Errors) == 0 {
			if result.Valid {
				fmt.Fprintf(w, "✓ %d rule(s) valid\n", result.Rules)
			}
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "✗ Error: %s\n", msg)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	_, err := fmt.Fprintf(w, "  %d file(s), %d error(s)\n", len(r.Results), r.Errors)
	return err
}
