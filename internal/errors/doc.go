// Package errors provides typed error values for restore-secrets.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Configuration errors: abort the run before any artifact is touched
//     (ErrNoPassphrase, ErrInvalidSettings, ErrUnknownDecryptor)
//   - Artifact errors: abandon a single artifact or destination and let the
//     run continue (ErrDecryptFailed, ErrWriteFailed, ErrPatchFailed)
//   - Warnings: a structured document lacks a key (ErrMissingField)
//
// # Usage
//
// Return errors from internal packages:
//
//	if passphrase == "" {
//	    return nil, errors.ErrNoPassphrase
//	}
//
// Handle errors in the CLI layer:
//
//	result, err := workflows.Restore(ctx, opts)
//	if errors.Is(err, kerrors.ErrNoPassphrase) {
//	    // Show user-friendly message
//	}
//
// DecryptionError carries the decryption program's diagnostics with the
// passphrase already scrubbed, and unwraps to ErrDecryptFailed:
//
//	var decErr *kerrors.DecryptionError
//	if errors.As(err, &decErr) {
//	    fmt.Println(decErr.Path)
//	}
package errors
