// Package main is the termpilot command: an assistant that proposes shell
// commands and runs them under an execution policy.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newApp().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "termpilot [request]",
		Short: "Ask for something in plain language and let the assistant run the shell commands",
		Example: `  Ask a single question:
  $ termpilot "which process is listening on port 8080?"

  Start a session:
  $ termpilot

  Let everything run except deny-listed commands:
  $ termpilot --mode denylist --deny "rm -rf" "clean up old build directories"`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runAction,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	pf.String("log-format", "text", "Set the logging format [text, json]")
	pf.Bool("debug", false, "Debug mode")
	pf.BoolP("verbose", "v", false, "Alias of --log-level=debug")
	pf.String("mode", "", "Execution mode [auto, allowlist, denylist, message]")
	pf.StringSlice("allow", nil, "Add a command prefix to the allow list (repeatable)")
	pf.StringSlice("deny", nil, "Add a command prefix to the deny list (repeatable)")

	rootCmd.Flags().BoolP("interactive", "i", false, "Keep the session open after the request given as argument")
	rootCmd.Flags().Int("max-turns", 0, "Maximum agent turns per request")
	rootCmd.Flags().String("model", "", "Model name")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return processGlobalFlags(cmd)
	}

	rootCmd.AddCommand(
		newHistoryCommand(),
		newPolicyCommand(),
	)
	return rootCmd
}

func processGlobalFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	// --log-level overrides --debug and --verbose
	debug, _ := flags.GetBool("debug")
	verbose, _ := flags.GetBool("verbose")
	if debug || verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if l, _ := flags.GetString("log-level"); l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}

	logFormat, _ := flags.GetString("log-format")
	switch logFormat {
	case "json":
		logrus.StandardLogger().SetFormatter(new(logrus.JSONFormatter))
	case "text":
		formatter := new(logrus.TextFormatter)
		formatter.DisableColors = !isatty.IsTerminal(os.Stderr.Fd())
		logrus.StandardLogger().SetFormatter(formatter)
	default:
		return fmt.Errorf("unsupported log-format: %q", logFormat)
	}
	logrus.SetOutput(os.Stderr)
	return nil
}
