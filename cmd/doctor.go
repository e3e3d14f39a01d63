package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/restore-secrets/internal/ui"
	"github.com/PolarWolf314/restore-secrets/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	doctorJSONOutput bool
	doctorRepoDir    string
	// doctorExitFunc is the function called to exit with a specific code.
	// Can be overridden for testing.
	doctorExitFunc = os.Exit
)

func init() {
	DoctorCmd.Flags().BoolVar(&doctorJSONOutput, "json", false, "output in JSON format")
	DoctorCmd.Flags().StringVar(&doctorRepoDir, "repo_dir", "", "path to the repository (default: current directory)")
}

func resetDoctorCommandState() {
	doctorJSONOutput = false
	doctorRepoDir = ""
	doctorExitFunc = os.Exit
}

// SetDoctorExitFunc sets the exit function for testing purposes.
func SetDoctorExitFunc(f func(int)) {
	doctorExitFunc = f
}

var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Checks that secrets can be restored",
	Long: `Runs a series of checks on the repository without decrypting anything.

The doctor command checks:
  - Settings file validity
  - Decryption backend availability
  - Secrets directory contents
  - Destination directories for every secret that would be restored
  - Info.plist presence for restored GoogleService plists
  - Gitignore coverage of the restored plaintext files

Exit codes:
  0 - All checks passed
  1 - Warnings found (non-critical issues)
  2 - Errors found (a restore would fail)

Use --json for machine-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	root, err := resolveRepoDir(doctorRepoDir)
	if err != nil {
		return err
	}

	result, err := workflows.Doctor(cmd.Context(), workflows.DoctorOptions{RepoRoot: root})
	if err != nil {
		fmt.Fprintln(out, formatError("Failed to run health checks", err, ""))
		return err
	}

	for _, check := range result.Checks {
		Logger.Debugf("Check %s: status=%s, message=%s", check.Name, check.Status, check.Message)
	}

	if doctorJSONOutput {
		if err := outputDoctorJSON(out, result); err != nil {
			return err
		}
	} else {
		printDoctorResults(out, result)
	}

	// Set exit code based on results.
	if result.Summary.Errors > 0 {
		doctorExitFunc(2)
	} else if result.Summary.Warnings > 0 {
		doctorExitFunc(1)
	}
	return nil
}

func outputDoctorJSON(out io.Writer, result *workflows.DoctorResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printDoctorResults prints the doctor results in a human-readable format.
func printDoctorResults(out io.Writer, result *workflows.DoctorResult) {
	for _, check := range result.Checks {
		var statusIcon string
		switch check.Status {
		case workflows.CheckPass:
			statusIcon = ui.MarkSuccess()
		case workflows.CheckWarning:
			statusIcon = ui.MarkWarning()
		case workflows.CheckError:
			statusIcon = ui.MarkError()
		}
		fmt.Fprintf(out, "%s %s: %s\n", statusIcon, check.Name, check.Message)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary: %d passed", result.Summary.Passed)
	if result.Summary.Warnings > 0 {
		fmt.Fprintf(out, ", %s", ui.Warning.Sprintf("%d warning(s)", result.Summary.Warnings))
	}
	if result.Summary.Errors > 0 {
		fmt.Fprintf(out, ", %s", ui.Error.Sprintf("%d error(s)", result.Summary.Errors))
	}
	fmt.Fprintln(out)

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Suggestions:")
		for _, suggestion := range result.Suggestions {
			fmt.Fprintf(out, "  %s %s\n", ui.MarkHint(), suggestion)
		}
	}
}
