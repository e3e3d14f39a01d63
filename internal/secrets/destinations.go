package secrets

import (
	"os"
	"path/filepath"
	"slices"
)

// SkipReason explains why an artifact resolved to no destinations.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipUnrecognizedKind: not a google-services / GoogleService file.
	SkipUnrecognizedKind
	// SkipNotInAllowList: the artifact's API was not requested.
	SkipNotInAllowList
	// SkipOverrideUnsupportedKind: override mode only distributes google-services files.
	SkipOverrideUnsupportedKind
	// SkipOverrideMissing: <repo>/<override>/<api> does not exist.
	SkipOverrideMissing
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipUnrecognizedKind:
		return "not a service credential file"
	case SkipNotInAllowList:
		return "api not in allow-list"
	case SkipOverrideUnsupportedKind:
		return "artifact override only accepts google-services files"
	case SkipOverrideMissing:
		return "artifact override directory does not exist"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of resolving one artifact.
type Resolution struct {
	Destinations []string
	Skip         SkipReason
}

// Skipped reports whether the artifact should not be restored.
func (r Resolution) Skipped() bool {
	return len(r.Destinations) == 0
}

// Resolver computes where each artifact's plaintext goes.
type Resolver struct {
	// RepoRoot is the absolute repository root.
	RepoRoot string

	// APIs restricts restoration to these API directories. Empty means all.
	APIs []string

	// ArtifactRoot, when set, replaces the default testapp destination with
	// <RepoRoot>/<ArtifactRoot>/<api>/<file>, provided that directory exists.
	ArtifactRoot string
}

// Resolve returns the destinations for a. The only I/O performed is an
// existence check of the override directory.
func (r Resolver) Resolve(a Artifact) Resolution {
	if a.Kind == KindUnknown {
		return Resolution{Skip: SkipUnrecognizedKind}
	}
	if len(r.APIs) > 0 && !slices.Contains(r.APIs, a.APIName) {
		return Resolution{Skip: SkipNotInAllowList}
	}

	if r.ArtifactRoot == "" {
		return Resolution{Destinations: []string{r.DefaultDestination(a)}}
	}

	// The override path is opt-in and never created; no fallback to the default.
	if a.Kind != KindServicesJSON {
		return Resolution{Skip: SkipOverrideUnsupportedKind}
	}
	dir := filepath.Join(r.root(), r.ArtifactRoot, a.APIName)
	if !isDir(dir) {
		return Resolution{Skip: SkipOverrideMissing}
	}
	return Resolution{Destinations: []string{filepath.Join(dir, a.FileName)}}
}

// DefaultDestination is <RepoRoot>/<api>/testapp/<file>.
func (r Resolver) DefaultDestination(a Artifact) string {
	return filepath.Join(r.root(), a.APIName, "testapp", a.FileName)
}

func (r Resolver) root() string {
	abs, err := filepath.Abs(r.RepoRoot)
	if err != nil {
		return filepath.Clean(r.RepoRoot)
	}
	return abs
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
