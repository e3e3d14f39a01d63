package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
)

func TestResolvePassphrase(t *testing.T) {
	passFile := filepath.Join(t.TempDir(), "secret.txt")
	secretstest.WriteFile(t, passFile, []byte("from-file\nignored\n"))

	tests := []struct {
		name    string
		literal string
		file    string
		stdin   string
		want    string
	}{
		{"Literal", "literal", "", "", "literal"},
		{"LiteralWinsOverFile", "literal", passFile, "", "literal"},
		{"Stdin", "", "-", "from-stdin\nignored\n", "from-stdin"},
		{"File", "", passFile, "", "from-file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePassphrase(tt.literal, tt.file, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("resolvePassphrase() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePassphrase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePassphrase_Missing(t *testing.T) {
	_, err := resolvePassphrase("", "", strings.NewReader(""))
	if !errors.Is(err, kerrors.ErrNoPassphrase) {
		t.Errorf("err = %v, want ErrNoPassphrase", err)
	}
}

func TestResolvePassphrase_MissingFile(t *testing.T) {
	_, err := resolvePassphrase("", filepath.Join(t.TempDir(), "missing"), strings.NewReader(""))
	if err == nil {
		t.Errorf("expected error for missing passphrase file")
	}
}
