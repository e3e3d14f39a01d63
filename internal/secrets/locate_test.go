package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
	"github.com/google/go-cmp/cmp"
)

func TestLocate_FindsSuffixAtAnyDepth(t *testing.T) {
	root := t.TempDir()

	want := []string{
		filepath.Join(root, "top.json.gpg"),
		filepath.Join(root, "auth", "google-services.json.gpg"),
		filepath.Join(root, "auth", "GoogleService-Info.plist.gpg"),
		filepath.Join(root, "deep", "a", "b", "c", "google-services.json.gpg"),
	}
	for _, p := range want {
		secretstest.WriteFile(t, p, []byte("ciphertext"))
	}
	// Noise that must not be returned.
	secretstest.WriteFile(t, filepath.Join(root, "auth", "README.md"), []byte("docs"))
	secretstest.WriteFile(t, filepath.Join(root, "auth", "google-services.json"), []byte("plain"))
	secretstest.WriteFile(t, filepath.Join(root, "auth", "notes.gpg.txt"), []byte("noise"))
	secretstest.Mkdir(t, filepath.Join(root, "dir.gpg"))

	var got []string
	for a := range Locate(root, DefaultSuffix) {
		got = append(got, a.Path)
	}

	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Locate() mismatch (-want +got):\n%s", diff)
	}
}

func TestLocate_MissingRootYieldsNothing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")

	count := 0
	for range Locate(root, DefaultSuffix) {
		count++
	}
	if count != 0 {
		t.Errorf("Locate(missing root) yielded %d artifacts, want 0", count)
	}
	if got := FindArtifacts(root, DefaultSuffix); len(got) != 0 {
		t.Errorf("FindArtifacts(missing root) = %v, want empty", got)
	}
}

func TestLocate_RootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file.gpg")
	secretstest.WriteFile(t, root, []byte("x"))

	if got := FindArtifacts(root, DefaultSuffix); len(got) != 0 {
		t.Errorf("FindArtifacts(file) = %v, want empty", got)
	}
}

func TestLocate_StopsWhenConsumerBreaks(t *testing.T) {
	root := t.TempDir()
	for _, api := range []string{"auth", "database", "storage"} {
		secretstest.WriteFile(t, filepath.Join(root, api, "google-services.json.gpg"), []byte("x"))
	}

	count := 0
	for range Locate(root, DefaultSuffix) {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected iteration to stop after 1 artifact, got %d", count)
	}
}

func TestLocate_RelativeRootReturnsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	secretstest.WriteFile(t, filepath.Join(root, "auth", "google-services.json.gpg"), []byte("x"))

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	artifacts := FindArtifacts(".", DefaultSuffix)
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	if !filepath.IsAbs(artifacts[0].Path) {
		t.Errorf("expected absolute path, got %s", artifacts[0].Path)
	}
}

func TestNewArtifact(t *testing.T) {
	a := NewArtifact("/repo/scripts/gha-encrypted/auth/GoogleService-Info.plist.gpg", DefaultSuffix)

	want := Artifact{
		Path:     "/repo/scripts/gha-encrypted/auth/GoogleService-Info.plist.gpg",
		APIName:  "auth",
		FileName: "GoogleService-Info.plist",
		Kind:     KindServicePlist,
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("NewArtifact() mismatch (-want +got):\n%s", diff)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		fileName string
		want     Kind
	}{
		{"google-services.json", KindServicesJSON},
		{"google-services-desktop.json", KindServicesJSON},
		{"GoogleService-Info.plist", KindServicePlist},
		{"service-account.json", KindUnknown},
		{"Info.plist", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			if got := KindOf(tt.fileName); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.fileName, got, tt.want)
			}
		})
	}
}
