package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/restore-secrets/internal/audit"
	"github.com/PolarWolf314/restore-secrets/internal/configs"
	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	logger "github.com/PolarWolf314/restore-secrets/internal/logging"
	"github.com/PolarWolf314/restore-secrets/internal/secrets"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// RestoreOptions is the run context shared by every step of a restore.
type RestoreOptions struct {
	// RepoRoot is the repository the secrets are restored into.
	RepoRoot string

	// Passphrase decrypts every artifact. It is never logged.
	Passphrase string

	// Settings holds the merged file and flag settings. Nil means defaults.
	Settings *configs.Settings

	// Decryptor overrides the backend named in Settings. Used by tests.
	Decryptor secrets.Decryptor

	// DryRun resolves destinations without decrypting or writing anything.
	DryRun bool

	Logger logger.Logger
}

// Status is the outcome of one artifact.
type Status string

const (
	StatusRestored Status = "restored"
	StatusPartial  Status = "partial"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
	StatusPlanned  Status = "planned"
)

// ArtifactReport records everything that happened to one artifact.
type ArtifactReport struct {
	Artifact     secrets.Artifact
	Status       Status
	SkipReason   secrets.SkipReason
	Destinations []secrets.WriteResult
	Patches      []secrets.PatchResult

	// Err is set when decryption or document parsing failed.
	Err error
}

// Warnings returns the patch steps skipped because of a missing or
// non-string key.
func (r ArtifactReport) Warnings() []secrets.PatchResult {
	var out []secrets.PatchResult
	for _, p := range r.Patches {
		if p.Skipped() {
			out = append(out, p)
		}
	}
	return out
}

// RestoreResult contains the outcome of a restore run.
type RestoreResult struct {
	RunID      string
	RepoRoot   string
	SecretsDir string
	DryRun     bool

	// Discovered lists every artifact found, in discovery order.
	Discovered []secrets.Artifact

	// Artifacts holds one report per discovered artifact, in the same order.
	Artifacts []ArtifactReport
}

// Counts returns the number of artifacts per status.
func (r *RestoreResult) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, a := range r.Artifacts {
		counts[a.Status]++
	}
	return counts
}

// HasFailures reports whether any artifact failed or was only partly restored,
// or any patch step failed for a reason other than an unusable key.
func (r *RestoreResult) HasFailures() bool {
	for _, a := range r.Artifacts {
		if a.Status == StatusFailed || a.Status == StatusPartial {
			return true
		}
		for _, p := range a.Patches {
			if p.Err != nil && !p.Skipped() {
				return true
			}
		}
	}
	return false
}

// Restore discovers encrypted artifacts under the secrets root, decrypts
// each one and writes it to its resolved destinations, then patches
// Info.plist placeholders from restored service plists.
//
// Artifacts are processed one at a time. A decryption, write or patch
// failure is recorded in the artifact's report and the run moves on; only
// configuration problems abort the run.
//
// Returns ErrNoPassphrase if no passphrase was supplied.
// Returns ErrInvalidSettings if the settings fail validation.
// Returns ErrUnknownDecryptor if the configured backend does not exist.
func Restore(ctx context.Context, opts RestoreOptions) (*RestoreResult, error) {
	log := opts.Logger

	if opts.Passphrase == "" {
		return nil, kerrors.ErrNoPassphrase
	}

	settings := opts.Settings
	if settings == nil {
		settings = configs.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	repoRoot, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}

	decryptor := opts.Decryptor
	if decryptor == nil {
		decryptor, err = secrets.NewDecryptor(settings.Decryptor, settings.GPGPath)
		if err != nil {
			return nil, err
		}
	}

	result := &RestoreResult{
		RunID:      uuid.New().String(),
		RepoRoot:   repoRoot,
		SecretsDir: settings.SecretsPath(repoRoot),
		DryRun:     opts.DryRun,
	}

	if len(settings.APIs) > 0 {
		log.Infof("Retrieving secrets for product APIs: %v", settings.APIs)
	}

	result.Discovered = secrets.FindArtifacts(result.SecretsDir, settings.Suffix)
	log.Infof("Found %d encrypted files in %s", len(result.Discovered), result.SecretsDir)
	for _, a := range result.Discovered {
		log.Infof("  %s", a.Path)
	}

	resolver := secrets.Resolver{
		RepoRoot:     repoRoot,
		APIs:         settings.APIs,
		ArtifactRoot: settings.ArtifactRoot,
	}
	placeholders := settings.SecretsPlaceholders()

	for _, artifact := range result.Discovered {
		report := restoreArtifact(ctx, log, artifact, resolver, decryptor, opts.Passphrase, placeholders, opts.DryRun)
		result.Artifacts = append(result.Artifacts, report)
	}

	if err := audit.Log(settings.AuditLogPath(repoRoot), auditEntry(result, settings)); err != nil {
		log.Warnf("Failed to write audit log: %v", err)
	}

	return result, nil
}

// restoreArtifact runs one artifact through resolve, decrypt, write and
// patch. Every step's outcome lands in the returned report.
func restoreArtifact(
	ctx context.Context,
	log logger.Logger,
	artifact secrets.Artifact,
	resolver secrets.Resolver,
	decryptor secrets.Decryptor,
	passphrase string,
	placeholders []secrets.Placeholder,
	dryRun bool,
) ArtifactReport {
	report := ArtifactReport{Artifact: artifact}

	resolution := resolver.Resolve(artifact)
	if resolution.Skipped() {
		report.Status = StatusSkipped
		report.SkipReason = resolution.Skip
		log.Infof("Skipping %s (api %s): %s", artifact.Path, artifact.APIName, resolution.Skip)
		return report
	}

	log.Infof("Encrypted %s file found: %s", artifact.Kind, artifact.Path)

	if dryRun {
		report.Status = StatusPlanned
		for _, dest := range resolution.Destinations {
			report.Destinations = append(report.Destinations, secrets.WriteResult{Path: dest})
			log.Infof("Would restore %s to %s", artifact.FileName, dest)
		}
		return report
	}

	log.Debugf("Decrypting %s", artifact.Path)
	plaintext, err := decryptor.Decrypt(ctx, artifact.Path, passphrase)
	if err != nil {
		report.Status = StatusFailed
		report.Err = err
		log.Errorf("%v", err)
		return report
	}
	log.Infof("Decrypted %s", artifact.Path)

	report.Destinations = secrets.WriteAll(plaintext, resolution.Destinations)

	failedWrites := 0
	for _, w := range report.Destinations {
		if !w.OK() {
			failedWrites++
			log.Errorf("Could not write %s: %v", w.Path, w.Err)
			continue
		}
		log.Infof("Copied decrypted %s (%s) to %s", artifact.FileName, humanize.Bytes(uint64(w.Bytes)), w.Path)

		if secrets.NeedsPatching(w.Path) {
			report.Patches = append(report.Patches, patchInfoPlist(log, w.Path, plaintext, placeholders)...)
		}
	}

	switch {
	case failedWrites == 0:
		report.Status = StatusRestored
	case failedWrites == len(report.Destinations):
		report.Status = StatusFailed
	default:
		report.Status = StatusPartial
	}

	return report
}

// patchInfoPlist uses a restored service plist as the source of truth for
// Info.plist placeholders.
func patchInfoPlist(log logger.Logger, servicePlist string, plaintext []byte, placeholders []secrets.Placeholder) []secrets.PatchResult {
	log.Infof("Attempting to patch Info.plist from %s", servicePlist)

	doc, err := secrets.ParseServicePlist(plaintext)
	if err != nil {
		target := secrets.InfoPlistPath(servicePlist)
		results := make([]secrets.PatchResult, 0, len(placeholders))
		for _, p := range placeholders {
			results = append(results, secrets.PatchResult{Target: target, Key: p.Key, Placeholder: p.Token, Err: err})
		}
		log.Errorf("Could not parse %s: %v", servicePlist, err)
		return results
	}

	results := secrets.PatchServicePlist(servicePlist, doc, placeholders)
	for _, r := range results {
		switch {
		case r.Missing:
			log.Warnf("Missing plist key %s in %s, skipping", r.Key, servicePlist)
		case r.WrongType:
			log.Warnf("Plist key %s in %s is not a string, skipping", r.Key, servicePlist)
		case r.Err != nil:
			log.Errorf("Could not patch %s in %s: %v", r.Placeholder, r.Target, r.Err)
		default:
			// The replacement value may be sensitive, so only the count is logged.
			log.Infof("Patched %d instances of %s in %s", r.Count, r.Placeholder, r.Target)
		}
	}
	return results
}

func auditEntry(result *RestoreResult, settings *configs.Settings) audit.Entry {
	entry := audit.Entry{
		RunID:     result.RunID,
		Operation: "restore",
		RepoRoot:  result.RepoRoot,
		DryRun:    result.DryRun,
		APIs:      settings.APIs,
		Artifact:  settings.ArtifactRoot,
	}
	for _, a := range result.Artifacts {
		switch a.Status {
		case StatusPlanned:
			entry.Planned = append(entry.Planned, a.Artifact.Path)
		case StatusRestored:
			entry.Restored = append(entry.Restored, a.Artifact.Path)
		case StatusPartial:
			entry.Partial = append(entry.Partial, a.Artifact.Path)
		case StatusSkipped:
			entry.Skipped = append(entry.Skipped, a.Artifact.Path)
		case StatusFailed:
			entry.Failed = append(entry.Failed, a.Artifact.Path)
		}
	}
	return entry
}
