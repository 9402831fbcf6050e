package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/spf13/cobra"
)

func newPolicyCommand() *cobra.Command {
	policyCommand := &cobra.Command{
		Use:   "policy",
		Short: "Show the effective execution policy",
		Example: `  Show the policy after config files, environment and flags:
  $ termpilot policy --mode denylist

  See what would happen to a command:
  $ termpilot policy check "rm -rf build"`,
		Args:              cobra.NoArgs,
		RunE:              policyAction,
		ValidArgsFunction: cobra.NoFileCompletions,
	}
	policyCommand.AddCommand(newPolicyCheckCommand())
	return policyCommand
}

func newPolicyCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check COMMAND",
		Short: "Show the decision for a command without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  policyCheckAction,
	}
}

func policyAction(cmd *cobra.Command, _ []string) error {
	store, err := storeForCommand(cmd)
	if err != nil {
		return err
	}
	writeSettings(cmd.OutOrStdout(), store.Snapshot())
	return nil
}

func policyCheckAction(cmd *cobra.Command, args []string) error {
	store, err := storeForCommand(cmd)
	if err != nil {
		return err
	}
	req := policy.Request{Text: strings.TrimSpace(args[0])}
	d := policy.Decide(req, store.Snapshot())
	writeDecision(cmd.OutOrStdout(), req, d)
	return nil
}

func storeForCommand(cmd *cobra.Command) (*policy.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newPolicyStore(cmd, cfg)
}

func writeSettings(out io.Writer, s policy.Settings) {
	fmt.Fprintf(out, "mode: %s\n", s.Mode)
	writeList(out, "allow", s.AllowList)
	writeList(out, "deny", s.DenyList)
}

func writeList(out io.Writer, name string, list []string) {
	fmt.Fprintf(out, "%s:\n", name)
	if len(list) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, e := range list {
		fmt.Fprintf(out, "  %s\n", e)
	}
}

func writeDecision(out io.Writer, req policy.Request, d policy.Decision) {
	fmt.Fprintf(out, "%s: %s\n", d, req.Text)
	switch d.Action {
	case policy.ActionConfirm:
		def := "refuse"
		if d.SuggestedDefault {
			def = "execute"
		}
		fmt.Fprintf(out, "asks for confirmation (default: %s)\n", def)
	case policy.ActionAllow:
		if d.Warn() {
			fmt.Fprintln(out, "runs without asking, with a warning")
		} else {
			fmt.Fprintln(out, "runs without asking")
		}
	case policy.ActionDeny:
		fmt.Fprintln(out, "never runs")
	}
}
