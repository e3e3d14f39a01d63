// Package secrets locates, decrypts and distributes encrypted service
// credential files.
//
// # Layout
//
// Encrypted artifacts live under the secrets root, one directory per
// product API:
//
//	scripts/gha-encrypted/auth/google-services.json.gpg
//	scripts/gha-encrypted/auth/GoogleService-Info.plist.gpg
//
// # Destinations
//
// By default an artifact is restored to <repo>/<api>/testapp/<file>. With an
// artifact root override it is restored to <repo>/<override>/<api>/<file>
// instead, but only when that directory already exists.
//
// # Decryption
//
// Two Decryptor backends exist: GPGDecryptor runs the gpg program in batch
// mode, OpenPGPDecryptor decrypts symmetric OpenPGP messages in process.
// Diagnostics never contain the passphrase; see Redact.
//
// # Patching
//
// A restored GoogleService plist is the source of truth for the reversed
// client ID and bundle ID placeholders in the sibling testapp/Info.plist.
package secrets
