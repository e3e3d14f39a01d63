package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/restore-secrets/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "restore-secrets",
	Short: "restore-secrets - restores encrypted service credentials into the testapp projects.",
	Long: `restore-secrets decrypts the per-product credential files kept under
scripts/gha-encrypted and copies them into each product's testapp, patching
Info.plist placeholders from the restored GoogleService plists.

Usage:
  restore-secrets <command> [flags]

Available Commands:
  restore    Decrypt and distribute credential files
  log        View the restore audit log
  doctor     Check that secrets can be restored

Run 'restore-secrets help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		banner := figure.NewColorFigure("restore-secrets", "small", "green", true)
		banner.Print()
		fmt.Println()
		fmt.Println("Run 'restore-secrets --help' to see available commands.")
	},
}

func main() {
	rootCmd.AddCommand(cmd.RestoreCmd)
	rootCmd.AddCommand(cmd.LogCmd)
	rootCmd.AddCommand(cmd.DoctorCmd)

	if err := rootCmd.Execute(); err != nil {
		if !cmd.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
