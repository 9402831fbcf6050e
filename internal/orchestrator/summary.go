package orchestrator

import (
	"fmt"
	"strings"
)

// Summarize renders the results of one turn as the single user message fed
// back to the agent. Each stream keeps at most maxChars of its tail.
func Summarize(results []Result, maxChars int) string {
	var b strings.Builder
	b.WriteString("Command results:\n")

	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		req := r.Resolution.Request
		if req.Text == "" {
			req = r.Original
		}

		fmt.Fprintf(&b, "$ %s\n", req.Text)
		if r.Resolution.Edited && r.Original.Text != req.Text {
			fmt.Fprintf(&b, "(edited by the user; originally: %s)\n", r.Original.Text)
		}
		if req.WorkingDir != "" {
			fmt.Fprintf(&b, "cwd: %s\n", req.WorkingDir)
		}

		out := r.Outcome
		switch {
		case !r.Ran:
			fmt.Fprintf(&b, "exit code: %d\n%s\n", out.ExitCode, out.Stderr)
			continue
		case out.TimedOut:
			fmt.Fprintf(&b, "exit code: %d (timed out)\n", out.ExitCode)
		case out.Interrupted:
			fmt.Fprintf(&b, "exit code: %d (interrupted by the user)\n", out.ExitCode)
		default:
			fmt.Fprintf(&b, "exit code: %d\n", out.ExitCode)
		}

		writeStream(&b, "stdout", out.Stdout, maxChars)
		writeStream(&b, "stderr", out.Stderr, maxChars)
		if out.Truncated {
			b.WriteString("(output exceeded the capture limit and was cut)\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeStream(b *strings.Builder, name, s string, maxChars int) {
	if s == "" {
		return
	}
	fmt.Fprintf(b, "%s:\n%s", name, Tail(s, maxChars))
	if !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}

// Tail keeps the last maxChars bytes of s, marking how much was dropped.
// The cut is moved forward to a rune boundary.
func Tail(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	start := len(s) - maxChars
	for start < len(s) && !isRuneStart(s[start]) {
		start++
	}
	return fmt.Sprintf("[... %d bytes truncated ...]\n%s", start, s[start:])
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
