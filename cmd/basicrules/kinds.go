package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/rules"
)

var kindsFlags struct {
	format string
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List registered node kinds",
	Long:  `List every node kind known to the registry with its argument bounds.`,
	RunE:  listKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)

	kindsCmd.Flags().StringVarP(&kindsFlags.format, "format", "o", "text", "output format: text, json")
}

// KindInfo describes a registered node kind.
type KindInfo struct {
	Name    string `json:"name"`
	MinArgs int    `json:"min_args"`
	MaxArgs int    `json:"max_args"`
}

// KindList is the output of the kinds command.
type KindList []KindInfo

func listKinds(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(kindsFlags.format)
	if err != nil {
		return err
	}

	var list KindList
	for _, name := range rules.DefaultRegistry.Names() {
		kind, ok := rules.DefaultRegistry.Lookup(name)
		if !ok {
			continue
		}
		list = append(list, KindInfo{Name: name, MinArgs: kind.MinArgs(), MaxArgs: kind.MaxArgs()})
	}
	return formatter(cmd, format).FormatTo(cmd.OutOrStdout(), list)
}

// RenderText writes one kind per line with its arity.
func (l KindList) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARGS")
	for _, k := range l {
		fmt.Fprintf(tw, "%s\t%s\n", k.Name, arity(k.MinArgs, k.MaxArgs))
	}
	return tw.Flush()
}

func arity(lo, hi int) string {
	bound := func(n int) string {
		if n == rules.Unbounded {
			return "*"
		}
		return strconv.Itoa(n)
	}
	if lo == hi {
		return bound(lo)
	}
	return bound(lo) + ".." + bound(hi)
}
