package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Cyclone1070/termpilot/internal/audit"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	historyCommand := &cobra.Command{
		Use:               "history",
		Short:             "Show recently proposed commands and what happened to them",
		Args:              cobra.NoArgs,
		RunE:              historyAction,
		ValidArgsFunction: cobra.NoFileCompletions,
	}
	historyCommand.Flags().IntP("number", "n", 20, "Number of entries to show")
	historyCommand.Flags().String("session", "", "Only show entries of this session")
	historyCommand.Flags().Bool("json", false, "JSONify output")
	return historyCommand
}

func historyAction(cmd *cobra.Command, _ []string) error {
	n, err := cmd.Flags().GetInt("number")
	if err != nil {
		return err
	}
	sessionID, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}
	jsonFormat, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Audit.Enabled {
		return errors.New("audit trail is disabled (audit.enabled=false)")
	}

	st, err := audit.Open(cfg.Audit.Path, logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.Recent(cmd.Context(), n, sessionID)
	if err != nil {
		return err
	}

	if jsonFormat {
		return writeHistoryJSON(cmd.OutOrStdout(), entries)
	}
	return writeHistoryTable(cmd.OutOrStdout(), entries)
}

func writeHistoryTable(out io.Writer, entries []audit.Entry) error {
	w := tabwriter.NewWriter(out, 4, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tMODE\tDECISION\tEXIT\tCOMMAND")
	for _, e := range entries {
		session := e.SessionID
		if len(session) > 8 {
			session = session[:8]
		}
		exit := "-"
		if e.Action == "ALLOW" {
			exit = fmt.Sprintf("%d", e.ExitCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), session, e.Mode, e.Action, e.Reason, exit, e.Command)
	}
	return w.Flush()
}

func writeHistoryJSON(out io.Writer, entries []audit.Entry) error {
	enc := json.NewEncoder(out)
	for _, e := range entries {
		if err := enc.Encode(map[string]any{
			"time":        e.CreatedAt.Format(time.RFC3339),
			"session":     e.SessionID,
			"turn":        e.Turn,
			"source":      e.Source,
			"command":     e.Command,
			"working_dir": e.WorkingDir,
			"program":     e.Program,
			"mode":        e.Mode,
			"action":      e.Action,
			"reason":      e.Reason,
			"confirmed":   e.Confirmed,
			"edited":      e.Edited,
			"state":       e.State,
			"exit_code":   e.ExitCode,
			"duration_ms": e.Duration.Milliseconds(),
		}); err != nil {
			return err
		}
	}
	return nil
}
