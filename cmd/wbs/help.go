package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
	"github.com/nojaja/wbs-manager-mcp-sub001/internal/ui"
)

// statusNames lists every task status, in lifecycle order, for help text.
var statusNames = strings.Join([]string{
	string(model.StatusDraft),
	string(model.StatusPending),
	string(model.StatusInProgress),
	string(model.StatusCompleted),
}, ", ")

var (
	// Unindented line ending in ":" ("Tasks:", "Flags:").
	helpHeader = regexp.MustCompile(`^[A-Z][^:]*:\s*$`)

	// Subcommand row: two-space indent, name, then the padding before its summary.
	helpCommandRow = regexp.MustCompile(`^  ([a-z][\w-]*)(\s{2,}.*)$`)

	// Spans that keep their own colour inside a line: flag defaults, flag
	// value types and status words.
	helpToken = regexp.MustCompile(
		`\(default "[^"]*"\)` +
			`|(--[\w-]+ )(string|int|duration|stringArray|strings)\b` +
			`|\b(draft|pending|in-progress|completed)\b`)
)

// helpFunc prints a command's description and usage, coloured when the
// terminal allows it.
func helpFunc(cmd *cobra.Command, _ []string) {
	text := helpText(cmd)
	if !noColor && ui.ShouldUseColor() {
		text = styleHelp(text)
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
}

func helpText(cmd *cobra.Command) string {
	var b strings.Builder
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc = strings.TrimRight(desc, " \n"); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	if cmd.Runnable() || cmd.HasSubCommands() {
		b.WriteString(cmd.UsageString())
	}
	return b.String()
}

// styleHelp colours plain help text: section headers in the accent colour,
// subcommand names, flag types and defaults muted, and every status word in
// the colour it has in task listings.
func styleHelp(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if helpHeader.MatchString(line) {
			lines[i] = ui.RenderAccent(strings.TrimSpace(line))
			continue
		}
		if m := helpCommandRow.FindStringSubmatch(line); m != nil {
			lines[i] = "  " + ui.RenderCommand(m[1]) + styleHelpTokens(m[2])
			continue
		}
		lines[i] = styleHelpTokens(line)
	}
	return strings.Join(lines, "\n")
}

func styleHelpTokens(line string) string {
	return helpToken.ReplaceAllStringFunc(line, func(match string) string {
		m := helpToken.FindStringSubmatch(match)
		switch {
		case m[3] != "":
			return ui.RenderStatus(model.Status(m[3]))
		case m[2] != "":
			return m[1] + ui.RenderMuted(m[2])
		default:
			return ui.RenderMuted(match)
		}
	})
}
