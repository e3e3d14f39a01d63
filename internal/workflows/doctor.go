package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/PolarWolf314/restore-secrets/internal/configs"
	"github.com/PolarWolf314/restore-secrets/internal/secrets"
	"github.com/bmatcuk/doublestar/v4"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found an issue that stops a restore.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// RepoRoot is the repository to inspect.
	RepoRoot string

	// Settings are the merged file and flag settings. Nil loads them from RepoRoot.
	Settings *configs.Settings
}

// doctorEnv is shared by every check. settingsErr is set when the settings
// file could not be loaded, in which case defaults are used for the rest.
type doctorEnv struct {
	repoRoot    string
	settings    *configs.Settings
	settingsErr error
	artifacts   []secrets.Artifact
}

// Doctor checks that a restore would succeed without decrypting anything.
//
// The doctor workflow checks:
//   - Settings file validity
//   - Decryption backend availability
//   - Secrets directory contents
//   - Destination directories for every artifact that would be restored
//   - Info.plist presence for restored service plists
//   - Gitignore coverage of the plaintext destinations
func Doctor(ctx context.Context, opts DoctorOptions) (*DoctorResult, error) {
	repoRoot, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}

	env := &doctorEnv{repoRoot: repoRoot, settings: opts.Settings}
	if env.settings == nil {
		env.settings, env.settingsErr = configs.LoadSettings(repoRoot)
		if env.settingsErr != nil {
			env.settings = configs.DefaultSettings()
		}
	}
	env.artifacts = secrets.FindArtifacts(env.settings.SecretsPath(repoRoot), env.settings.Suffix)

	checks := []func(*doctorEnv) CheckResult{
		checkSettings,
		checkDecryptor,
		checkSecretsDir,
		checkDestinations,
		checkInfoPlists,
		checkGitignore,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(env))
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkSettings(env *doctorEnv) CheckResult {
	const name = "Settings"

	if env.settingsErr != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to load settings: %v", env.settingsErr),
			Suggestion: "Check " + configs.FileName + " for syntax errors",
		}
	}
	if err := env.settings.Validate(); err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Fix the reported value in " + configs.FileName + " or on the command line",
		}
	}
	if len(env.settings.Unknown) > 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Unknown keys in %s: %s", configs.FileName, strings.Join(env.settings.Unknown, ", ")),
			Suggestion: "Remove or rename the unknown keys in " + configs.FileName,
		}
	}

	return CheckResult{Name: name, Status: CheckPass, Message: "Settings valid"}
}

func checkDecryptor(env *doctorEnv) CheckResult {
	const name = "Decryptor"

	d, err := secrets.NewDecryptor(env.settings.Decryptor, env.settings.GPGPath)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Use --decryptor gpg or --decryptor openpgp",
		}
	}

	gpg, ok := d.(secrets.GPGDecryptor)
	if !ok {
		return CheckResult{Name: name, Status: CheckPass, Message: "Using the built-in OpenPGP decryptor"}
	}

	program := gpg.Program()
	path, err := exec.LookPath(program)
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s not found", program),
			Suggestion: "Install gpg, point --gpg at it, or use --decryptor openpgp",
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "Using " + path}
}

func checkSecretsDir(env *doctorEnv) CheckResult {
	const name = "Secrets directory"
	dir := env.settings.SecretsPath(env.repoRoot)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("%s does not exist", dir),
			Suggestion: "Run from the repository root or pass --repo_dir",
		}
	}
	if len(env.artifacts) == 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("No *%s files in %s", env.settings.Suffix, dir),
			Suggestion: "Check secrets_dir and suffix in " + configs.FileName,
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Found %d encrypted files", len(env.artifacts)),
	}
}

// plannedDestinations resolves every artifact the way a restore would.
func (env *doctorEnv) plannedDestinations() map[secrets.Artifact][]string {
	resolver := secrets.Resolver{
		RepoRoot:     env.repoRoot,
		APIs:         env.settings.APIs,
		ArtifactRoot: env.settings.ArtifactRoot,
	}
	planned := make(map[secrets.Artifact][]string)
	for _, a := range env.artifacts {
		if r := resolver.Resolve(a); !r.Skipped() {
			planned[a] = r.Destinations
		}
	}
	return planned
}

func checkDestinations(env *doctorEnv) CheckResult {
	const name = "Destinations"

	var missing []string
	total := 0
	for _, dests := range env.plannedDestinations() {
		for _, d := range dests {
			total++
			if info, err := os.Stat(filepath.Dir(d)); err != nil || !info.IsDir() {
				missing = append(missing, relativeTo(env.repoRoot, filepath.Dir(d)))
			}
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%d of %d destination directories are missing: %s", len(missing), total, strings.Join(missing, ", ")),
			Suggestion: "Destination directories are never created; check out the missing testapp projects first",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("All %d destination directories exist", total),
	}
}

func checkInfoPlists(env *doctorEnv) CheckResult {
	const name = "Info.plist"

	var missing []string
	total := 0
	for _, dests := range env.plannedDestinations() {
		for _, d := range dests {
			if !secrets.NeedsPatching(d) {
				continue
			}
			total++
			target := secrets.InfoPlistPath(d)
			if _, err := os.Stat(target); err != nil {
				missing = append(missing, relativeTo(env.repoRoot, target))
			}
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Info.plist not found for patching: %s", strings.Join(missing, ", ")),
			Suggestion: "Placeholders are only patched in existing Info.plist files",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("%d Info.plist files ready for patching", total),
	}
}

// checkGitignore warns when a plaintext destination is not matched by any
// pattern in the repository .gitignore. Negated patterns are not evaluated.
func checkGitignore(env *doctorEnv) CheckResult {
	const name = "Gitignore configuration"

	planned := env.plannedDestinations()
	if len(planned) == 0 {
		return CheckResult{Name: name, Status: CheckPass, Message: "No plaintext destinations to ignore"}
	}

	content, err := os.ReadFile(filepath.Join(env.repoRoot, ".gitignore"))
	if os.IsNotExist(err) {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    "No .gitignore file found",
			Suggestion: "Add google-services.json and GoogleService-Info.plist to .gitignore",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("Failed to read .gitignore: %v", err),
			Suggestion: "Check that the .gitignore file is accessible",
		}
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}

	var exposed []string
	for _, dests := range planned {
		for _, d := range dests {
			rel := filepath.ToSlash(relativeTo(env.repoRoot, d))
			if !gitignored(patterns, rel) {
				exposed = append(exposed, rel)
			}
		}
	}

	if len(exposed) > 0 {
		slices.Sort(exposed)
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("Restored secrets would not be ignored: %s", strings.Join(exposed, ", ")),
			Suggestion: "Add google-services.json and GoogleService-Info.plist to .gitignore",
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: "All restored secrets are ignored by git",
	}
}

// gitignored approximates git's matching: a pattern without a slash matches
// any path component, otherwise it is anchored at the repository root.
func gitignored(patterns []string, rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range patterns {
		p = strings.TrimSuffix(p, "/")
		if !strings.Contains(p, "/") {
			for _, part := range parts {
				if ok, _ := doublestar.Match(p, part); ok {
					return true
				}
			}
			continue
		}
		p = strings.TrimPrefix(p, "/")
		for i := len(parts); i > 0; i-- {
			if ok, _ := doublestar.Match(p, strings.Join(parts[:i], "/")); ok {
				return true
			}
		}
	}
	return false
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// calculateDoctorSummary calculates the counts of checks by status.
func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
