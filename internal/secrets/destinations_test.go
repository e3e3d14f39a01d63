package secrets

import (
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
	"github.com/google/go-cmp/cmp"
)

func artifactFor(root, api, fileName string) Artifact {
	return NewArtifact(filepath.Join(root, "scripts", "gha-encrypted", api, fileName+DefaultSuffix), DefaultSuffix)
}

func TestResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	secretstest.Mkdir(t, filepath.Join(root, "artifacts", "auth"))

	tests := []struct {
		name     string
		resolver Resolver
		artifact Artifact
		want     Resolution
	}{
		{
			name:     "DefaultJSON",
			resolver: Resolver{RepoRoot: root},
			artifact: artifactFor(root, "auth", "google-services.json"),
			want:     Resolution{Destinations: []string{filepath.Join(root, "auth", "testapp", "google-services.json")}},
		},
		{
			name:     "DefaultPlist",
			resolver: Resolver{RepoRoot: root},
			artifact: artifactFor(root, "auth", "GoogleService-Info.plist"),
			want:     Resolution{Destinations: []string{filepath.Join(root, "auth", "testapp", "GoogleService-Info.plist")}},
		},
		{
			name:     "UnrecognizedKind",
			resolver: Resolver{RepoRoot: root},
			artifact: artifactFor(root, "auth", "service-account.json"),
			want:     Resolution{Skip: SkipUnrecognizedKind},
		},
		{
			name:     "InAllowList",
			resolver: Resolver{RepoRoot: root, APIs: []string{"auth", "database"}},
			artifact: artifactFor(root, "database", "google-services.json"),
			want:     Resolution{Destinations: []string{filepath.Join(root, "database", "testapp", "google-services.json")}},
		},
		{
			name:     "NotInAllowList",
			resolver: Resolver{RepoRoot: root, APIs: []string{"auth"}},
			artifact: artifactFor(root, "storage", "google-services.json"),
			want:     Resolution{Skip: SkipNotInAllowList},
		},
		{
			name:     "OverrideExists",
			resolver: Resolver{RepoRoot: root, ArtifactRoot: "artifacts"},
			artifact: artifactFor(root, "auth", "google-services.json"),
			want:     Resolution{Destinations: []string{filepath.Join(root, "artifacts", "auth", "google-services.json")}},
		},
		{
			name:     "OverrideMissingHasNoFallback",
			resolver: Resolver{RepoRoot: root, ArtifactRoot: "artifacts"},
			artifact: artifactFor(root, "storage", "google-services.json"),
			want:     Resolution{Skip: SkipOverrideMissing},
		},
		{
			name:     "OverrideRejectsPlist",
			resolver: Resolver{RepoRoot: root, ArtifactRoot: "artifacts"},
			artifact: artifactFor(root, "auth", "GoogleService-Info.plist"),
			want:     Resolution{Skip: SkipOverrideUnsupportedKind},
		},
		{
			name:     "AllowListCheckedBeforeOverride",
			resolver: Resolver{RepoRoot: root, APIs: []string{"database"}, ArtifactRoot: "artifacts"},
			artifact: artifactFor(root, "auth", "google-services.json"),
			want:     Resolution{Skip: SkipNotInAllowList},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.resolver.Resolve(tt.artifact)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
			if got.Skipped() != (tt.want.Skip != SkipNone) {
				t.Errorf("Skipped() = %t, want %t", got.Skipped(), tt.want.Skip != SkipNone)
			}
			for _, d := range got.Destinations {
				if !filepath.IsAbs(d) {
					t.Errorf("destination %s is not absolute", d)
				}
			}
		})
	}
}

func TestResolver_Deterministic(t *testing.T) {
	root := t.TempDir()
	r := Resolver{RepoRoot: root, APIs: []string{"auth"}}
	a := artifactFor(root, "auth", "google-services.json")

	first := r.Resolve(a)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, r.Resolve(a)); diff != "" {
			t.Fatalf("Resolve() not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResolver_RelativeRepoRoot(t *testing.T) {
	r := Resolver{RepoRoot: "."}
	got := r.DefaultDestination(Artifact{APIName: "auth", FileName: "google-services.json", Kind: KindServicesJSON})
	if !filepath.IsAbs(got) {
		t.Errorf("DefaultDestination() = %s, want absolute path", got)
	}
}

func TestSkipReason_String(t *testing.T) {
	if SkipNotInAllowList.String() != "api not in allow-list" {
		t.Errorf("unexpected String(): %s", SkipNotInAllowList)
	}
	if SkipReason(99).String() != "unknown" {
		t.Errorf("unexpected String() for unknown reason: %s", SkipReason(99))
	}
}
