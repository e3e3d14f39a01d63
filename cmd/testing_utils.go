// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for building a CLI instance,
// capturing output, and preparing repositories with encrypted secrets.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"testing"

	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
	"github.com/spf13/cobra"
)

const testPassphrase = "correct horse battery staple"

// captureOutput captures both stdout and stderr during function execution.
// The logger writes straight to the process streams, so a command's own
// output writer is not enough.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stdoutChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		stderrChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan + <-stderrChan, err
}

// createTestCLI creates a complete CLI instance with fresh flag state.
// stdin may be nil.
func createTestCLI(args []string, stdin io.Reader) *cobra.Command {
	ResetGlobalState()

	rootCmd := &cobra.Command{
		Use:   "restore-secrets",
		Short: "restore-secrets - restores encrypted service credentials into the testapp projects.",
	}
	rootCmd.AddCommand(RestoreCmd)
	rootCmd.AddCommand(LogCmd)
	rootCmd.AddCommand(DoctorCmd)

	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)

	return rootCmd
}

// runCLI executes args and returns everything printed.
func runCLI(t *testing.T, args []string, stdin io.Reader) (string, error) {
	t.Helper()
	t.Cleanup(ResetGlobalState)
	return captureOutput(func() error {
		return createTestCLI(args, stdin).Execute()
	})
}

// setupRepo creates a repository with an auth product whose json and plist
// secrets are encrypted with testPassphrase.
func setupRepo(t *testing.T) *secretstest.Repo {
	t.Helper()
	repo := secretstest.NewRepo(t, testPassphrase)
	repo.AddSecret("auth", "google-services.json", secretstest.ServicesJSON)
	repo.AddSecret("auth", "GoogleService-Info.plist", secretstest.ServicePlist)
	repo.AddSecret("database", "google-services.json", secretstest.ServicesJSON)
	repo.AddTestApp("auth")
	repo.AddTestApp("database")
	repo.AddInfoPlist("auth", secretstest.InfoPlist)
	return repo
}
