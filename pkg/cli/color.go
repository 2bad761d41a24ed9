package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"mercator-hq/basicrules/pkg/ruleset"
)

var (
	matchedColor = color.New(color.FgGreen)
	missedColor  = color.New(color.FgRed)
	failedColor  = color.New(color.FgYellow, color.Bold)
)

func init() {
	// The formatter decides per writer; the package-wide switch would
	// otherwise follow os.Stdout.
	for _, c := range []*color.Color{matchedColor, missedColor, failedColor} {
		c.EnableColor()
	}
}

// outcomeMark is the status column of text reports.
func outcomeMark(o ruleset.Outcome, colored bool) string {
	var mark string
	var c *color.Color
	switch o {
	case ruleset.OutcomeTrue:
		mark, c = "✓", matchedColor
	case ruleset.OutcomeFalse:
		mark, c = "✗", missedColor
	default:
		mark, c = "!", failedColor
	}
	if !colored {
		return mark
	}
	return c.Sprint(mark)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewTerminalFormatter creates a formatter for w. Text output is colored
// when w is a terminal, noColor is unset and NO_COLOR is not set.
func NewTerminalFormatter(format OutputFormat, w io.Writer, noColor bool) Formatter {
	if format == FormatJSON {
		return NewFormatter(format)
	}
	_, envNoColor := os.LookupEnv("NO_COLOR")
	return &TextFormatter{Color: !noColor && !envNoColor && IsTerminal(w)}
}
