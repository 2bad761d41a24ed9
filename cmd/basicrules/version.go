package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/basicrules/pkg/cli"
	"mercator-hq/basicrules/pkg/telemetry/health"
)

// Build metadata, overridden with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionFlags struct {
	format string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  printVersion,
}

func init() {
	versionCmd.Flags().StringVarP(&versionFlags.format, "format", "o", "text", "output format: text, json")
	rootCmd.AddCommand(versionCmd)
}

// buildInfo is the payload of the version command and the /version probe.
type buildInfo struct {
	health.VersionInfo
	Platform string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		VersionInfo: health.VersionInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
			GoVersion: runtime.Version(),
		},
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (b buildInfo) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "basicrules %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
		b.Version, b.Commit, b.BuildTime, b.GoVersion, b.Platform)
	return err
}

func printVersion(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(versionFlags.format)
	if err != nil {
		return cli.NewCommandError("version", err)
	}
	return formatter(cmd, format).FormatTo(cmd.OutOrStdout(), currentBuild())
}
