package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/ui"
)

// helpRule restyles every match of re in cobra's help text. render receives
// the submatches of one match.
type helpRule struct {
	re     *regexp.Regexp
	render func(m []string) string
}

var helpRules = []helpRule{
	// Section headers such as "Run:" and "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func(m []string) string {
		return ui.RenderAccent(m[1])
	}},
	// Command names in the command list.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(m []string) string {
		return m[1] + ui.RenderCommand(m[2]) + m[3]
	}},
	// Flag value types, e.g. "--out string".
	{regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringArray)\b`), func(m []string) string {
		return m[1] + ui.RenderMuted(m[2])
	}},
	{regexp.MustCompile(`\(default "[^"]*"\)`), func(m []string) string {
		return ui.RenderMuted(m[0])
	}},
}

// colorizedHelpFunc returns a help function that styles cobra's usage text
// when stdout supports color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if noColorFlag || !ui.ShouldUseColor() {
			cmd.SetOut(out)
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			return r.render(r.re.FindStringSubmatch(match))
		})
	}
	return s
}
