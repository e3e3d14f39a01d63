// Package secretstest builds encrypted fixture repositories for tests.
package secretstest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// ServicePlist is a GoogleService-Info.plist with both patched keys.
const ServicePlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>REVERSED_CLIENT_ID</key>
	<string>com.googleusercontent.apps.123-abc</string>
	<key>BUNDLE_ID</key>
	<string>com.google.firebase.cpp.auth.testapp</string>
	<key>PROJECT_ID</key>
	<string>quickstart-test</string>
</dict>
</plist>`

// ServicePlistWithoutBundleID lacks BUNDLE_ID.
const ServicePlistWithoutBundleID = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>REVERSED_CLIENT_ID</key>
	<string>com.googleusercontent.apps.123-abc</string>
</dict>
</plist>`

// InfoPlist contains one of each placeholder token.
const InfoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>$(PRODUCT_BUNDLE_IDENTIFIER)</string>
	<key>CFBundleURLTypes</key>
	<array>
		<dict>
			<key>CFBundleURLSchemes</key>
			<array>
				<string>REPLACE_WITH_REVERSED_CLIENT_ID</string>
			</array>
		</dict>
	</array>
</dict>
</plist>`

// ServicesJSON is a minimal google-services.json.
const ServicesJSON = `{"project_info":{"project_id":"quickstart-test"}}`

// Encrypt returns plaintext symmetrically encrypted with passphrase.
func Encrypt(t testing.TB, plaintext []byte, passphrase string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := openpgp.SymmetricallyEncrypt(&buf, []byte(passphrase), nil, nil)
	if err != nil {
		t.Fatalf("Failed to start encryption: %v", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish encryption: %v", err)
	}
	return buf.Bytes()
}

// Armor wraps an OpenPGP message in ASCII armor.
func Armor(t testing.TB, message []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, "PGP MESSAGE", nil)
	if err != nil {
		t.Fatalf("Failed to start armor: %v", err)
	}
	if _, err := w.Write(message); err != nil {
		t.Fatalf("Failed to armor: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish armor: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// Mkdir creates a directory and its parents.
func Mkdir(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

// Repo is a temporary repository with a secrets directory.
type Repo struct {
	t          testing.TB
	Root       string
	Passphrase string
}

// NewRepo creates an empty repository under t.TempDir().
func NewRepo(t testing.TB, passphrase string) *Repo {
	t.Helper()
	return &Repo{t: t, Root: t.TempDir(), Passphrase: passphrase}
}

// SecretsDir is the default secrets root of the repository.
func (r *Repo) SecretsDir() string {
	return filepath.Join(r.Root, "scripts", "gha-encrypted")
}

// AddSecret encrypts plaintext to scripts/gha-encrypted/<api>/<fileName>.gpg.
func (r *Repo) AddSecret(api, fileName, plaintext string) string {
	r.t.Helper()
	path := filepath.Join(r.SecretsDir(), api, fileName+".gpg")
	WriteFile(r.t, path, Encrypt(r.t, []byte(plaintext), r.Passphrase))
	return path
}

// AddTestApp creates <api>/testapp so default destinations can be written.
func (r *Repo) AddTestApp(api string) string {
	r.t.Helper()
	dir := filepath.Join(r.Root, api, "testapp")
	Mkdir(r.t, dir)
	return dir
}

// AddInfoPlist writes <api>/testapp/testapp/Info.plist and returns its path.
func (r *Repo) AddInfoPlist(api, content string) string {
	r.t.Helper()
	path := filepath.Join(r.Root, api, "testapp", "testapp", "Info.plist")
	WriteFile(r.t, path, []byte(content))
	return path
}

// Read returns the content of a repository file.
func (r *Repo) Read(rel string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Root, rel))
	if err != nil {
		r.t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}
