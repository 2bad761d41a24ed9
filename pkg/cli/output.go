package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/ruleset"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"

	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates an output format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: must be 'text' or 'json'", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextRenderer is implemented by results that render their own text form.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct {
	// Color highlights outcome marks with ANSI colors.
	Color bool
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(w)
	case *ruleset.Report:
		return writeReport(w, v, f.Color)
	case ruleset.RuleResult:
		return writeResults(w, []ruleset.RuleResult{v}, f.Color)
	case []ruleset.RuleDebug:
		return writeDebug(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TextFormatter{}
	}
}

func writeReport(w io.Writer, report *ruleset.Report, colored bool) error {
	if _, err := fmt.Fprintf(w, "Ruleset %q (evaluation %s)\n", report.Ruleset, report.ID); err != nil {
		return err
	}
	if err := writeResults(w, report.Results, colored); err != nil {
		return err
	}
	if report.Stopped {
		fmt.Fprintln(w, "Stopped at the first failing rule")
	}

	matched, failed := len(report.Matched()), len(report.Failed())
	_, err := fmt.Fprintf(w, "\nSummary:\n  %d rule(s), %d matched, %d not matched, %d failed (%s)\n",
		len(report.Results), matched, len(report.Results)-matched-failed, failed, report.Duration)
	return err
}

func writeResults(w io.Writer, results []ruleset.RuleResult, colored bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, res := range results {
		value := rules.FormatValue(res.Value)
		if res.Outcome == ruleset.OutcomeError {
			value = res.Kind
			if res.Error != "" {
				value = res.Error
			}
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", outcomeMark(res.Outcome, colored), res.Rule, value)
	}
	return tw.Flush()
}

func writeDebug(w io.Writer, traces []ruleset.RuleDebug) error {
	for _, d := range traces {
		if _, err := fmt.Fprintf(w, "%s = %s\n  %s\n", d.Rule, d.Result, d.Trace); err != nil {
			return err
		}
	}
	return nil
}
