package secrets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// RedactionMarker replaces the passphrase in any diagnostic text.
const RedactionMarker = "****"

// altRedactionMarker is used when the passphrase is made only of the
// characters of RedactionMarker.
const altRedactionMarker = "[redacted]"

// Decryptor turns one encrypted artifact into plaintext.
type Decryptor interface {
	Decrypt(ctx context.Context, path, passphrase string) ([]byte, error)
}

// Redact replaces every literal occurrence of passphrase in msg. The result
// never contains passphrase, even where a marker lands next to text that
// would complete it.
func Redact(msg, passphrase string) string {
	if passphrase == "" {
		return msg
	}
	marker := RedactionMarker
	if strings.Trim(passphrase, "*") == "" {
		marker = altRedactionMarker
	}
	// Every pass removes at least one character of the passphrase that the
	// marker does not contain, so this terminates.
	for strings.Contains(msg, passphrase) {
		msg = strings.ReplaceAll(msg, passphrase, marker)
	}
	return msg
}

// decryptionError builds a *errors.DecryptionError whose fields and whole
// message are scrubbed of passphrase.
func decryptionError(path, stderr string, err error, passphrase string) *kerrors.DecryptionError {
	e := &kerrors.DecryptionError{
		Path:   path,
		Stderr: Redact(stderr, passphrase),
	}
	if err != nil {
		e.Err = errors.New(Redact(err.Error(), passphrase))
	}
	e.Message = Redact(e.Compose(), passphrase)
	return e
}

// trimFinalNewline removes a single trailing line separator, if any.
func trimFinalNewline(b []byte) []byte {
	if bytes.HasSuffix(b, []byte("\r\n")) {
		return b[:len(b)-2]
	}
	return bytes.TrimSuffix(b, []byte("\n"))
}

// GPGDecryptor shells out to the gpg program in batch mode.
type GPGDecryptor struct {
	// Path is the gpg executable. Defaults to "gpg" looked up on PATH.
	Path string
}

// Program is the executable Decrypt runs.
func (g GPGDecryptor) Program() string {
	if g.Path == "" {
		return "gpg"
	}
	return g.Path
}

// Args returns the gpg argument list for decrypting path.
func (g GPGDecryptor) Args(path, passphrase string) []string {
	return []string{
		"--passphrase", passphrase,
		"--quiet",
		"--batch",
		"--yes",
		"--decrypt",
		path,
	}
}

// Decrypt runs gpg and returns its stdout. On a non-zero exit the returned
// *errors.DecryptionError carries gpg's stderr with the passphrase scrubbed.
func (g GPGDecryptor) Decrypt(ctx context.Context, path, passphrase string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, g.Program(), g.Args(path, passphrase)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, decryptionError(path, stderr.String(), err, passphrase)
	}

	return trimFinalNewline(stdout.Bytes()), nil
}

// OpenPGPDecryptor decrypts symmetrically encrypted OpenPGP messages in
// process. Both binary and ASCII-armored input are accepted.
type OpenPGPDecryptor struct{}

const armorHeader = "-----BEGIN PGP"

func (OpenPGPDecryptor) Decrypt(_ context.Context, path, passphrase string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, decryptionError(path, "", err, passphrase)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if peek, _ := br.Peek(len(armorHeader)); string(peek) == armorHeader {
		block, err := armor.Decode(r)
		if err != nil {
			return nil, decryptionError(path, "", fmt.Errorf("decoding armor: %w", err), passphrase)
		}
		r = block.Body
	}

	// The prompt is called again after a wrong passphrase; fail instead of looping.
	tried := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if !symmetric || tried {
			return nil, errors.New("decryption failed: bad passphrase or not a symmetric message")
		}
		tried = true
		return []byte(passphrase), nil
	}

	md, err := openpgp.ReadMessage(r, openpgp.EntityList{}, prompt, nil)
	if err != nil {
		return nil, decryptionError(path, "", err, passphrase)
	}

	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, decryptionError(path, "", err, passphrase)
	}

	return trimFinalNewline(plaintext), nil
}

// NewDecryptor returns the backend registered under name.
func NewDecryptor(name, gpgPath string) (Decryptor, error) {
	switch name {
	case "", "gpg":
		return GPGDecryptor{Path: gpgPath}, nil
	case "openpgp":
		return OpenPGPDecryptor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownDecryptor, name)
	}
}
