package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/PolarWolf314/restore-secrets/internal/audit"
	"github.com/PolarWolf314/restore-secrets/internal/configs"
	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"github.com/PolarWolf314/restore-secrets/internal/ui"
	"github.com/PolarWolf314/restore-secrets/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	logLimit   int
	logReverse bool
	logSince   string
	logFailed  bool
	logJSON    bool
	logPath    string
	logRepoDir string
)

func init() {
	LogCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of runs shown")
	LogCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent runs first")
	LogCmd.Flags().StringVar(&logSince, "since", "", "show runs after date (YYYY-MM-DD)")
	LogCmd.Flags().BoolVar(&logFailed, "failed", false, "only show runs with failed or partial secrets")
	LogCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
	LogCmd.Flags().StringVar(&logPath, "audit-log", "", "audit log file (default: audit_log from the settings file)")
	LogCmd.Flags().StringVar(&logRepoDir, "repo_dir", "", "path to the repository (default: current directory)")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logSince = ""
	logFailed = false
	logJSON = false
	logPath = ""
	logRepoDir = ""
}

var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "View the restore audit log",
	Long: `Displays the runs recorded with --audit-log or the audit_log setting.

Examples:
  restore-secrets log --audit-log restore-audit.jsonl
  restore-secrets log -n 5 --reverse
  restore-secrets log --failed --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := logPath
	if path == "" {
		root, err := resolveRepoDir(logRepoDir)
		if err != nil {
			return err
		}
		settings, err := configs.LoadSettings(root)
		if err != nil {
			fmt.Fprintln(out, formatError("Invalid settings", err, ""))
			return reported(err)
		}
		path = settings.AuditLogPath(root)
	}

	result, err := workflows.Log(cmd.Context(), workflows.LogOptions{
		Path:       path,
		Limit:      logLimit,
		Reverse:    logReverse,
		Since:      logSince,
		FailedOnly: logFailed,
	})
	if err != nil {
		fmt.Fprintln(out, formatLogError(err))
		if errors.Is(err, kerrors.ErrNoAuditLog) {
			return nil
		}
		return reported(err)
	}

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			fmt.Fprintln(out, "No audit log entries found.")
		} else {
			fmt.Fprintln(out, "No audit log entries found matching the filters.")
		}
		return nil
	}

	if logJSON {
		return outputLogJSON(out, result.Entries)
	}
	outputLogDefault(out, result.Entries)
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoAuditLog):
		return ui.Info.Sprint("ℹ") + " No audit log found. Runs are recorded when " +
			ui.Code.Sprint("--audit-log") + " or audit_log is set."
	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.MarkError() + " " + err.Error()
	default:
		return ui.MarkError() + " Failed to read audit log: " + err.Error()
	}
}

func outputLogJSON(out io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func outputLogDefault(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%-19s  %-36s  %s\n", workflows.FormatDateTime(e.Timestamp), e.RunID, workflows.FormatDetails(e))
	}
}
