// Package utils provides small helpers shared by the CLI and workflows.
//
//   - ReadFirstLine / ReadFirstLineOfFile: passphrase file input
//   - ReadPassphrase / IsTerminal: hidden terminal input
//   - FormatPaths: path lists for human-readable output
package utils
