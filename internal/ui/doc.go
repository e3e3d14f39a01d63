// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by meaning (paths, errors, hints) and adapt to
// terminal capabilities. When NO_COLOR is set or the terminal doesn't
// support colors, text decorations are used instead:
//
//	ui.Code.Sprint("--passphrase_file")      // `--passphrase_file`
//	ui.Highlight.Sprint("auth")              // 'auth'
//	ui.Muted.Sprint("api not in allow-list") // (api not in allow-list)
//
// The Mark* helpers produce the status glyph that starts each report line.
package ui
