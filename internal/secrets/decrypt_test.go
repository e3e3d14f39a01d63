package secrets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
	"github.com/buildkite/bintest/v3"
	"github.com/google/go-cmp/cmp"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		passphrase string
		want       string
	}{
		{"Plain", "bad passphrase hunter2", "hunter2", "bad passphrase ****"},
		{"EveryOccurrence", "hunter2 hunter2hunter2", "hunter2", "**** ********"},
		{"RegexSpecial", "gpg: --passphrase a.*b+(c)?[d]$ failed", "a.*b+(c)?[d]$", "gpg: --passphrase **** failed"},
		{"Backslashes", `path \d\w\1 done`, `\d\w\1`, "path **** done"},
		{"NotPresent", "decryption failed: No secret key", "hunter2", "decryption failed: No secret key"},
		{"EmptyPassphrase", "unchanged", "", "unchanged"},
		{"Asterisk", "gpg: bad passphrase *", "*", "gpg: bad passphrase [redacted]"},
		{"PartOfMarker", "a ** b ***", "**", "a [redacted] b [redacted]*"},
		{"CompletedByMarker", "xx*", "x*", "*******"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.msg, tt.passphrase)
			if got != tt.want {
				t.Errorf("Redact(%q, %q) = %q, want %q", tt.msg, tt.passphrase, got, tt.want)
			}
			if tt.passphrase != "" && strings.Contains(got, tt.passphrase) {
				t.Errorf("Redact() left the passphrase in %q", got)
			}
		})
	}
}

func TestTrimFinalNewline(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{}\n", "{}"},
		{"{}\r\n", "{}"},
		{"{}\n\n", "{}\n"},
		{"{}", "{}"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := string(trimFinalNewline([]byte(tt.in))); got != tt.want {
			t.Errorf("trimFinalNewline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGPGDecryptor_Args(t *testing.T) {
	got := GPGDecryptor{}.Args("/secrets/auth/google-services.json.gpg", "s3cret")
	want := []string{"--passphrase", "s3cret", "--quiet", "--batch", "--yes", "--decrypt", "/secrets/auth/google-services.json.gpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestGPGDecryptor_Success(t *testing.T) {
	gpg, err := bintest.CompileProxy("gpg")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(gpg) error = %v", err)
	}
	defer gpg.Close()

	go func() {
		call := <-gpg.Ch
		if !slices.Contains(call.Args, "--batch") || !slices.Contains(call.Args, "--decrypt") {
			fmt.Fprintf(call.Stderr, "unexpected args %v\n", call.Args)
			call.Exit(2)
			return
		}
		fmt.Fprintln(call.Stdout, secretstest.ServicesJSON)
		call.Exit(0)
	}()

	got, err := GPGDecryptor{Path: gpg.Path}.Decrypt(context.Background(), "auth/google-services.json.gpg", "s3cret")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(got) != secretstest.ServicesJSON {
		t.Errorf("Decrypt() = %q, want %q", got, secretstest.ServicesJSON)
	}
}

func TestGPGDecryptor_FailureRedactsPassphrase(t *testing.T) {
	const passphrase = "p@ss.*word(1)"

	gpg, err := bintest.CompileProxy("gpg")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(gpg) error = %v", err)
	}
	defer gpg.Close()

	go func() {
		call := <-gpg.Ch
		fmt.Fprintf(call.Stderr, "gpg: decryption failed with passphrase %s: Bad session key\n", passphrase)
		call.Exit(2)
	}()

	_, err = GPGDecryptor{Path: gpg.Path}.Decrypt(context.Background(), "auth/google-services.json.gpg", passphrase)
	if err == nil {
		t.Fatal("Decrypt() error = nil, want non-nil")
	}
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("errors.Is(%v, ErrDecryptFailed) = false", err)
	}
	if strings.Contains(err.Error(), passphrase) {
		t.Errorf("error message leaks passphrase: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "Bad session key") || !strings.Contains(err.Error(), RedactionMarker) {
		t.Errorf("error message = %q, want redacted gpg diagnostics", err.Error())
	}

	var decErr *kerrors.DecryptionError
	if !errors.As(err, &decErr) {
		t.Fatalf("errors.As(%v, *DecryptionError) = false", err)
	}
	if decErr.Path != "auth/google-services.json.gpg" {
		t.Errorf("DecryptionError.Path = %q", decErr.Path)
	}
}

func TestGPGDecryptor_MissingProgram(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-gpg")

	_, err := GPGDecryptor{Path: missing}.Decrypt(context.Background(), "x.gpg", "s3cret")
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("Decrypt() error = %v, want ErrDecryptFailed", err)
	}
	if strings.Contains(err.Error(), "s3cret") {
		t.Errorf("error message leaks passphrase: %q", err.Error())
	}
}

func TestOpenPGPDecryptor(t *testing.T) {
	const passphrase = "correct horse battery staple"
	dir := t.TempDir()
	ciphertext := secretstest.Encrypt(t, []byte(secretstest.ServicePlist+"\n"), passphrase)

	binaryPath := filepath.Join(dir, "binary.gpg")
	secretstest.WriteFile(t, binaryPath, ciphertext)
	armoredPath := filepath.Join(dir, "armored.gpg")
	secretstest.WriteFile(t, armoredPath, secretstest.Armor(t, ciphertext))

	for _, path := range []string{binaryPath, armoredPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			got, err := OpenPGPDecryptor{}.Decrypt(context.Background(), path, passphrase)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if string(got) != secretstest.ServicePlist {
				t.Errorf("Decrypt() = %q, want %q", got, secretstest.ServicePlist)
			}
		})
	}
}

func TestOpenPGPDecryptor_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "google-services.json.gpg")
	secretstest.WriteFile(t, path, secretstest.Encrypt(t, []byte(secretstest.ServicesJSON), "right"))

	_, err := OpenPGPDecryptor{}.Decrypt(context.Background(), path, "wr[o]ng.*")
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Fatalf("Decrypt() error = %v, want ErrDecryptFailed", err)
	}
	if strings.Contains(err.Error(), "wr[o]ng.*") {
		t.Errorf("error message leaks passphrase: %q", err.Error())
	}
}

func TestOpenPGPDecryptor_MissingFile(t *testing.T) {
	_, err := OpenPGPDecryptor{}.Decrypt(context.Background(), filepath.Join(t.TempDir(), "missing.gpg"), "x")
	if !errors.Is(err, kerrors.ErrDecryptFailed) {
		t.Errorf("Decrypt() error = %v, want ErrDecryptFailed", err)
	}
}

func TestDecryptor_PassphraseInPath(t *testing.T) {
	repo := secretstest.NewRepo(t, "right")
	path := repo.AddSecret("auth", "google-services.json", secretstest.ServicesJSON)

	tests := []struct {
		name       string
		path       string
		passphrase string
	}{
		{"WrongPassphrase", path, "auth"},
		{"MissingFile", filepath.Join(filepath.Dir(path), "missing.gpg"), "auth"},
		{"MarkerOnly", path, "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenPGPDecryptor{}.Decrypt(context.Background(), tt.path, tt.passphrase)
			if !errors.Is(err, kerrors.ErrDecryptFailed) {
				t.Fatalf("Decrypt() error = %v, want ErrDecryptFailed", err)
			}
			if strings.Contains(err.Error(), tt.passphrase) {
				t.Errorf("error message leaks passphrase %q: %q", tt.passphrase, err.Error())
			}
			if !strings.HasPrefix(err.Error(), "decrypting ") {
				t.Errorf("error message = %q, want it to name the artifact", err.Error())
			}
		})
	}
}

func TestGPGDecryptor_PassphraseInPath(t *testing.T) {
	gpg, err := bintest.CompileProxy("gpg")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(gpg) error = %v", err)
	}
	defer gpg.Close()

	go func() {
		call := <-gpg.Ch
		fmt.Fprintf(call.Stderr, "gpg: can't open '%s': No such file\n", call.Args[len(call.Args)-1])
		call.Exit(2)
	}()

	_, err = GPGDecryptor{Path: gpg.Path}.Decrypt(context.Background(), "secrets/auth/google-services.json.gpg", "auth")
	if err == nil {
		t.Fatal("Decrypt() error = nil, want non-nil")
	}
	if strings.Contains(err.Error(), "auth") {
		t.Errorf("error message leaks passphrase: %q", err.Error())
	}
	want := "decrypting secrets/****/google-services.json.gpg: gpg: can't open 'secrets/****/google-services.json.gpg': No such file"
	if err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}
}

func TestNewDecryptor(t *testing.T) {
	if d, err := NewDecryptor("", "/usr/local/bin/gpg"); err != nil || d != (GPGDecryptor{Path: "/usr/local/bin/gpg"}) {
		t.Errorf("NewDecryptor(\"\") = %v, %v", d, err)
	}
	if d, err := NewDecryptor("openpgp", ""); err != nil || d != (OpenPGPDecryptor{}) {
		t.Errorf("NewDecryptor(openpgp) = %v, %v", d, err)
	}
	if _, err := NewDecryptor("age", ""); !errors.Is(err, kerrors.ErrUnknownDecryptor) {
		t.Errorf("NewDecryptor(age) error = %v, want ErrUnknownDecryptor", err)
	}
}
