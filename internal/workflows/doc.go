// Package workflows provides high-level orchestration for restore-secrets
// commands.
//
// Workflows coordinate the configs, secrets and audit packages to implement
// complete user-facing features, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Available Workflows
//
//   - Restore: discover, decrypt, distribute and patch service credentials
//   - Log: read and filter the restore audit log
//   - Doctor: check that a restore would succeed, without decrypting
//
// # Error Handling
//
// Only configuration problems are returned as errors, using the typed
// values from internal/errors. Per-artifact failures are recorded in the
// returned RestoreResult so the run always attempts every artifact:
//
//	result, err := workflows.Restore(ctx, opts)
//	if errors.Is(err, kerrors.ErrNoPassphrase) {
//	    // Show user-friendly message
//	}
//	if result.HasFailures() {
//	    // Exit non-zero after printing the report
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Restore passes it to the decryptor, which cancels a running gpg process.
package workflows
