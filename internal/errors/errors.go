package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors are fatal for the whole run.
var (
	// ErrNoPassphrase indicates neither a passphrase nor a passphrase file was supplied.
	ErrNoPassphrase = errors.New("must supply a passphrase or a passphrase file")

	// ErrInvalidSettings indicates the settings file or flags are malformed.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrUnknownDecryptor indicates an unsupported decryptor backend was requested.
	ErrUnknownDecryptor = errors.New("unknown decryptor")
)

// Artifact errors abandon one unit of work; the run continues.
var (
	// ErrDecryptFailed indicates an encrypted artifact could not be decrypted.
	ErrDecryptFailed = errors.New("failed to decrypt file")

	// ErrWriteFailed indicates decrypted content could not be written to a destination.
	ErrWriteFailed = errors.New("failed to write destination")

	// ErrPatchFailed indicates a placeholder file could not be read or rewritten.
	ErrPatchFailed = errors.New("failed to patch file")

	// ErrInvalidDocument indicates a decrypted document could not be parsed.
	ErrInvalidDocument = errors.New("invalid credential document")
)

// ErrMissingField indicates a structured document lacks an expected key.
// It is reported as a warning, never as a failure.
var ErrMissingField = errors.New("missing field")

// ErrFieldType indicates a structured document holds an expected key with a
// value of the wrong type. Like ErrMissingField it is only a warning.
var ErrFieldType = errors.New("field has wrong type")

// DecryptionError describes a failed decryption of a single artifact.
// Stderr must already have the passphrase scrubbed from it.
type DecryptionError struct {
	Path   string
	Stderr string
	Err    error

	// Message, when set, replaces the composed text. Decryptors store the
	// scrubbed form of the whole message here, path included.
	Message string
}

func (e *DecryptionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Compose()
}

// Compose builds the message from Path, Stderr and Err.
func (e *DecryptionError) Compose() string {
	var b strings.Builder
	fmt.Fprintf(&b, "decrypting %s", e.Path)
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrDecryptFailed.
func (e *DecryptionError) Unwrap() error {
	return ErrDecryptFailed
}

// Audit log errors.
var (
	// ErrNoAuditLog indicates no audit log is configured or it does not exist yet.
	ErrNoAuditLog = errors.New("no audit log found")

	// ErrInvalidDateFormat indicates a date filter could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
)
