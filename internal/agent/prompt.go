package agent

import (
	"fmt"
	"strings"
)

// PromptContext is what the system prompt tells the agent about its surroundings.
type PromptContext struct {
	OS         string
	Shell      string
	WorkingDir string
	GitBranch  string
	GitDirty   bool
	Mode       string
	AllowList  []string
}

// SystemPrompt renders the instructions sent as the first system message.
func SystemPrompt(pc PromptContext) string {
	var b strings.Builder

	b.WriteString("You are a terminal assistant. You help the user by proposing shell commands and reasoning about their results.\n\n")
	b.WriteString("To run a command, put it on its own between <run> and </run>, for example:\n")
	b.WriteString("<run>ls -la</run>\n")
	b.WriteString("Optional attributes: cwd=\"dir\", timeout=\"milliseconds\", interactive=\"true\" for programs that need the keyboard.\n")
	b.WriteString("Commands run one after another in the order written. After they run you will receive their exit codes and output.\n")
	b.WriteString("Exit code 124 means the command timed out, 130 means the user interrupted it, and 1 with a refusal note means it never ran.\n")
	b.WriteString("When the task is done, answer without any <run> blocks.\n\n")

	b.WriteString("Environment:\n")
	fmt.Fprintf(&b, "- OS: %s\n", pc.OS)
	fmt.Fprintf(&b, "- Shell: %s\n", pc.Shell)
	if pc.WorkingDir != "" {
		fmt.Fprintf(&b, "- Working directory: %s\n", pc.WorkingDir)
	}
	if pc.GitBranch != "" {
		state := "clean"
		if pc.GitDirty {
			state = "uncommitted changes"
		}
		fmt.Fprintf(&b, "- Git branch: %s (%s)\n", pc.GitBranch, state)
	}

	switch pc.Mode {
	case "message":
		b.WriteString("\nThe user has disabled execution. Commands you write are shown to them but never run; explain what each one does.\n")
	case "allowlist":
		if len(pc.AllowList) > 0 {
			fmt.Fprintf(&b, "\nThese commands run without asking: %s. Anything else needs the user's confirmation.\n", strings.Join(pc.AllowList, ", "))
		}
	}

	return b.String()
}
