// Package logger provides leveled, colored logging for restore-secrets.
//
// # Verbosity Levels
//
//   - Verbose: info messages (every decrypt, skip, write and patch action)
//   - Debug: everything, including debug details
//
// Warnings and errors are always written to stderr.
//
// # Usage
//
//	log := Logger{Verbose: true}
//	log.Infof("Decrypting %s", path)
//
// The restore command enables Verbose unless --quiet is given, so a CI log
// reconstructs what was and was not restored. Never pass the passphrase to
// any Logger method.
package logger
