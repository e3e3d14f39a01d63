// Package configs loads restore-secrets settings.
//
// Settings are layered: built-in defaults, then an optional TOML file at
// <repo>/.restore-secrets.toml, then command-line flags applied by the
// caller. Example file:
//
//	secrets_dir = "scripts/gha-encrypted"
//	suffix = ".gpg"
//	decryptor = "gpg"
//	apis = ["auth", "database"]
//	audit_log = "restore-audit.jsonl"
//
//	[[placeholders]]
//	key = "REVERSED_CLIENT_ID"
//	token = "REPLACE_WITH_REVERSED_CLIENT_ID"
//
// Call Validate after applying flags.
package configs
