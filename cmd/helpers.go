package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/PolarWolf314/restore-secrets/internal/ui"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner when running with --quiet and
// without --debug. Returns the spinner and a function that should be
// deferred to clean up; the cleanup prints spinner.FinalMSG to out.
//
// spinner.FinalMSG values do NOT need trailing newlines.
func startSpinner(out io.Writer, message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	showSpinner := quiet && !debug

	if err := s.Color("cyan"); err != nil {
		Logger.Debugf("Failed to set spinner color: %v", err)
	}

	if showSpinner {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Debugf("Running without spinner: %s", message)
	}

	cleanup := func() {
		if showSpinner {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if showSpinner {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(out, finalMsg)
		}
	}

	return s, cleanup
}

// formatError renders a one-line failure message with an optional hint.
func formatError(message string, err error, hint string) string {
	msg := ui.MarkError() + " " + message
	if err != nil {
		msg += "\n" + ui.Error.Sprint("Error: ") + err.Error()
	}
	if hint != "" {
		msg += "\n" + ui.MarkHint() + " " + hint
	}
	return msg
}

// reportedError wraps an error whose message a command has already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// reported marks err as already shown to the user.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// Reported reports whether err was already printed by the command that
// returned it, so the caller only needs to set the exit code.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
