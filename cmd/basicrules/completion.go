package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/ruleset"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for basicrules.

  source <(basicrules completion bash)
  basicrules completion zsh > "${fpath[1]}/_basicrules"
  basicrules completion fish | source
  basicrules completion powershell | Out-String | Invoke-Expression

Completion of --rule reads rule names from the configured ruleset.`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "zsh":
			return rootCmd.GenZshCompletion(w)
		case "fish":
			return rootCmd.GenFishCompletion(w, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(w)
		}
		return rootCmd.GenBashCompletionV2(w, true)
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerCompletions attaches flag value completions. It runs after every
// command has defined its flags.
func registerCompletions() {
	outputFormats := cobra.FixedCompletions([]string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp)
	dataFormats := cobra.FixedCompletions([]string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp)
	for _, c := range []*cobra.Command{evalCmd, debugCmd, lintCmd, kindsCmd, watchCmd, versionCmd} {
		_ = c.RegisterFlagCompletionFunc("format", outputFormats)
	}
	for _, c := range []*cobra.Command{evalCmd, debugCmd, watchCmd} {
		_ = c.RegisterFlagCompletionFunc("data-format", dataFormats)
	}
	_ = fmtCmd.RegisterFlagCompletionFunc("to", dataFormats)
	_ = evalCmd.RegisterFlagCompletionFunc("rule", completeRuleNames)
}

// completeRuleNames offers the names of the configured rules that start
// with toComplete. Load errors yield no suggestions.
func completeRuleNames(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	rulesCfg := config.GetConfig().Rules
	if rootFlags.rules != "" {
		rulesCfg.Path = rootFlags.rules
	}

	rs, err := ruleset.NewFileSource(ruleset.FileSourceConfigFrom(rulesCfg), nil).Load(commandContext(cmd))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, r := range rs.Rules() {
		if strings.HasPrefix(r.Name, toComplete) {
			names = append(names, r.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
