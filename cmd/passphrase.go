package cmd

import (
	"io"
	"os"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"github.com/PolarWolf314/restore-secrets/internal/utils"
)

// stdinMarker as --passphrase_file reads the passphrase from standard input.
const stdinMarker = "-"

// resolvePassphrase picks the passphrase from, in order, the literal flag,
// standard input, or the first line of a file. The result is sensitive and
// must never be logged.
func resolvePassphrase(literal, file string, stdin io.Reader) (string, error) {
	switch {
	case literal != "":
		return literal, nil

	case file == stdinMarker:
		if f, ok := stdin.(*os.File); ok && f == os.Stdin && utils.IsTerminal() {
			p, err := utils.ReadPassphrase("Passphrase: ")
			if err != nil {
				return "", err
			}
			return string(p), nil
		}
		return utils.ReadFirstLine(stdin)

	case file != "":
		return utils.ReadFirstLineOfFile(file)

	default:
		return "", kerrors.ErrNoPassphrase
	}
}
