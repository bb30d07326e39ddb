package main

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/landreg/internal/ui"
	"github.com/spf13/cobra"
)

var (
	// "  register    Register a new land parcel"
	reCommandLine = regexp.MustCompile(`^(  )([a-z][\w-]*)(\s{2,}.*)$`)
	// "--every duration", "--size float"
	reFlagType = regexp.MustCompile(`(--[\w-]+ )(string|int|uint64|float|duration|stringSlice)\b`)
	reDefault  = regexp.MustCompile(`\(default [^)]*\)`)
)

// colorizedHelpFunc renders cobra's usage text through colorizeHelpOutput
// when stdout is a colour terminal.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		_, _ = out.Write([]byte(colorizeHelpOutput(buf.String())))
	}
}

func colorizeHelpOutput(help string) string {
	lines := strings.Split(help, "\n")
	for i, line := range lines {
		switch {
		case isSectionHeader(line):
			lines[i] = ui.RenderAccent(strings.TrimSpace(line))
		case reCommandLine.MatchString(line):
			m := reCommandLine.FindStringSubmatch(line)
			lines[i] = m[1] + ui.RenderCommand(m[2]) + m[3]
		default:
			line = reFlagType.ReplaceAllString(line, "${1}"+ui.RenderMuted("${2}"))
			lines[i] = reDefault.ReplaceAllStringFunc(line, ui.RenderMuted)
		}
	}
	return strings.Join(lines, "\n")
}

// isSectionHeader matches cobra group titles such as "Lands:" and "Flags:".
func isSectionHeader(line string) bool {
	trimmed := strings.TrimRight(line, " ")
	return trimmed != "" && trimmed[0] >= 'A' && trimmed[0] <= 'Z' && strings.HasSuffix(trimmed, ":")
}
