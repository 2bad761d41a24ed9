package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/ruleset"
)

var fmtFlags struct {
	to    string
	write bool
	diff  bool
}

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Reformat or convert a rule file",
	Long: `Decode a rule file and encode it again in canonical form.

The output format defaults to the input format. Converting between YAML
and JSON goes through the node representation, so the result decodes to
the same rules.

Examples:
  # Print the canonical YAML form
  basicrules fmt pricing.yaml

  # Convert to JSON
  basicrules fmt pricing.yaml --to json > pricing.json

  # Rewrite the file in place
  basicrules fmt pricing.yaml -w

  # Show what would change
  basicrules fmt pricing.yaml -d`,
	Args: cobra.ExactArgs(1),
	RunE: formatRules,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().StringVar(&fmtFlags.to, "to", "", "output format: yaml, json (default input format)")
	fmtCmd.Flags().BoolVarP(&fmtFlags.write, "write", "w", false, "write the result back to the file")
	fmtCmd.Flags().BoolVarP(&fmtFlags.diff, "diff", "d", false, "print a line diff instead of the result")
}

func formatRules(cmd *cobra.Command, args []string) error {
	path := args[0]
	from := ruleset.FormatFromPath(path)
	to := from
	if fmtFlags.to != "" {
		var err error
		if to, err = ruleset.ParseFormat(fmtFlags.to); err != nil {
			return err
		}
	}
	if fmtFlags.write && to != from {
		return cli.NewCommandError("fmt", fmt.Errorf("cannot rewrite %s as %s in place; redirect the output instead", path, to))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cli.NewCommandError("fmt", err)
	}
	set, err := ruleset.Decode(data, from, nil)
	if err != nil {
		return cli.NewCommandError("fmt", err)
	}
	out, err := set.Encode(to)
	if err != nil {
		return cli.NewCommandError("fmt", err)
	}

	if fmtFlags.diff {
		return writeLineDiff(cmd.OutOrStdout(), path, string(data), string(out))
	}
	if fmtFlags.write {
		info, err := os.Stat(path)
		if err != nil {
			return cli.NewCommandError("fmt", err)
		}
		return os.WriteFile(path, out, info.Mode().Perm())
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// writeLineDiff prints the lines removed from and added to a file, each
// prefixed with - or +. Nothing is printed when the contents are equal.
func writeLineDiff(w io.Writer, path, from, to string) error {
	if from == to {
		return nil
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fmt.Fprintf(w, "--- %s\n+++ %s (formatted)\n", path, path)
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "-"
		case diffpatch.DiffInsert:
			prefix = "+"
		default:
			prefix = " "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if _, err := fmt.Fprint(w, prefix+line); err != nil {
				return err
			}
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
	return nil
}
