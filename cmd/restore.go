package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/restore-secrets/internal/configs"
	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	logger "github.com/PolarWolf314/restore-secrets/internal/logging"
	"github.com/PolarWolf314/restore-secrets/internal/ui"
	"github.com/PolarWolf314/restore-secrets/internal/workflows"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	quiet  bool
	debug  bool
	Logger logger.Logger

	passphrase     string
	passphraseFile string
	repoDir        string
	apis           []string
	artifactRoot   string
	decryptorName  string
	gpgPath        string
	auditLog       string
	dryRun         bool
)

// errRestoreIncomplete makes the process exit non-zero after the report is printed.
var errRestoreIncomplete = errors.New("some secrets were not restored")

func init() {
	RestoreCmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase to decrypt the files (insecure on multi-user machines, prefer --passphrase_file)")
	RestoreCmd.Flags().StringVar(&passphraseFile, "passphrase_file", "", `file to read the passphrase from (first line only), "-" for stdin`)
	RestoreCmd.Flags().StringVar(&repoDir, "repo_dir", "", "path to the repository (default: current directory)")
	RestoreCmd.Flags().StringSliceVar(&apis, "apis", nil, "comma-separated product APIs to restore (default: all)")
	RestoreCmd.Flags().StringVar(&artifactRoot, "artifact", "", "artifact directory, google-services.json is placed in <artifact>/<api>/ when it exists")
	RestoreCmd.Flags().StringVar(&decryptorName, "decryptor", "", `decryption backend: "gpg" or "openpgp"`)
	RestoreCmd.Flags().StringVar(&gpgPath, "gpg", "", "gpg executable used by the gpg backend")
	RestoreCmd.Flags().StringVar(&auditLog, "audit-log", "", "append a JSON Lines record of the run to this file")
	RestoreCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show where secrets would be restored without decrypting anything")

	RestoreCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print the final report")
	RestoreCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
}

var RestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Decrypts service credential files into the testapp projects",
	Long: `Decrypts every encrypted file under scripts/gha-encrypted and restores it
into the matching project:

  scripts/gha-encrypted/auth/google-services.json.gpg -> auth/testapp/google-services.json

Restored GoogleService-Info.plist files are used as the source of truth for
the reversed client ID and bundle ID placeholders in testapp/Info.plist.

Examples:
  restore-secrets restore --passphrase_file ~/secret.txt
  echo "$PASSPHRASE" | restore-secrets restore --passphrase_file -
  restore-secrets restore --passphrase_file - --apis auth,database
  restore-secrets restore --passphrase_file - --artifact build/artifacts`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: !quiet,
			Debug:   debug,
		}
		Logger.Debugf("Initializing restore command with quiet=%t, debug=%t", quiet, debug)
	},
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// The passphrase is sensitive, do not log.
	pass, err := resolvePassphrase(passphrase, passphraseFile, cmd.InOrStdin())
	if err != nil {
		fmt.Fprintln(out, formatRestoreError(err))
		return reported(err)
	}

	root, err := resolveRepoDir(repoDir)
	if err != nil {
		fmt.Fprintln(out, formatRestoreError(err))
		return reported(err)
	}

	settings, err := configs.LoadSettings(root)
	if err != nil {
		fmt.Fprintln(out, formatRestoreError(err))
		return reported(err)
	}
	for _, key := range settings.Unknown {
		Logger.Warnf("Ignoring unknown key %s in %s", key, configs.FileName)
	}
	applyRestoreFlags(cmd, settings)

	spinner, cleanup := startSpinner(out, "Restoring secrets...")
	defer cleanup()

	result, err := workflows.Restore(cmd.Context(), workflows.RestoreOptions{
		RepoRoot:   root,
		Passphrase: pass,
		Settings:   settings,
		DryRun:     dryRun,
		Logger:     Logger,
	})
	if err != nil {
		spinner.FinalMSG = formatRestoreError(err)
		return reported(err)
	}

	spinner.FinalMSG = formatRestoreReport(result)
	if result.HasFailures() {
		return reported(errRestoreIncomplete)
	}
	return nil
}

// applyRestoreFlags lets explicitly set flags win over the settings file.
func applyRestoreFlags(cmd *cobra.Command, settings *configs.Settings) {
	flags := cmd.Flags()
	if flags.Changed("apis") {
		settings.APIs = apis
	}
	if flags.Changed("artifact") {
		settings.ArtifactRoot = artifactRoot
	}
	if flags.Changed("decryptor") {
		settings.Decryptor = decryptorName
	}
	if flags.Changed("gpg") {
		settings.GPGPath = gpgPath
	}
	if flags.Changed("audit-log") {
		settings.AuditLog = auditLog
	}
}

func resolveRepoDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// formatRestoreError formats a fatal restore error for display to the user.
func formatRestoreError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoPassphrase):
		return formatError("No passphrase supplied", nil,
			"Pass "+ui.Code.Sprint("--passphrase_file <path>")+" or pipe it with "+ui.Code.Sprint("--passphrase_file -"))
	case errors.Is(err, kerrors.ErrInvalidSettings):
		return formatError("Invalid settings", err, "Check "+ui.Path.Sprint(configs.FileName)+" and the command-line flags")
	case errors.Is(err, kerrors.ErrUnknownDecryptor):
		return formatError("Unknown decryptor", err, "Use "+ui.Code.Sprint("--decryptor gpg")+" or "+ui.Code.Sprint("--decryptor openpgp"))
	default:
		return formatError("Failed to restore secrets", err, "")
	}
}

// Helper functions for testing

// ResetGlobalState resets all flag variables to their default values for testing.
func ResetGlobalState() {
	quiet = false
	debug = false
	passphrase = ""
	passphraseFile = ""
	repoDir = ""
	apis = nil
	artifactRoot = ""
	decryptorName = ""
	gpgPath = ""
	auditLog = ""
	dryRun = false
	resetLogCommandState()
	resetDoctorCommandState()

	RestoreCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	LogCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	DoctorCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
}
