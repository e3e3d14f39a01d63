// Package audit records restore runs in a JSON Lines file.
//
// When an audit log path is configured, every run appends one entry with
// its run ID, timestamp, selection inputs and the encrypted artifact paths
// grouped by outcome (planned, restored, partial, skipped, failed). Secret values and
// the passphrase are never recorded.
//
// # Failure Handling
//
// Audit logging is best-effort. Log returns an error so the caller can warn,
// but a failed audit write never changes the outcome of a restore.
package audit
