package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/restore-secrets/internal/secrets"
	"github.com/PolarWolf314/restore-secrets/internal/ui"
	"github.com/PolarWolf314/restore-secrets/internal/utils"
	"github.com/PolarWolf314/restore-secrets/internal/workflows"
	"github.com/dustin/go-humanize"
)

// formatRestoreReport renders the whole run so a CI log shows what was and
// was not restored.
func formatRestoreReport(result *workflows.RestoreResult) string {
	var b strings.Builder
	rel := func(path string) string { return relativeTo(result.RepoRoot, path) }

	if len(result.Discovered) == 0 {
		b.WriteString(ui.MarkWarning() + " No encrypted files found in " + ui.Path.Sprint(result.SecretsDir) + "\n")
		return b.String()
	}

	paths := make([]string, len(result.Discovered))
	for i, a := range result.Discovered {
		paths[i] = rel(a.Path)
	}
	b.WriteString("Found these encrypted files:" + utils.FormatPaths(paths))

	for _, report := range result.Artifacts {
		writeArtifactReport(&b, report, rel)
	}

	b.WriteString(formatSummary(result))
	return b.String()
}

func writeArtifactReport(b *strings.Builder, report workflows.ArtifactReport, rel func(string) string) {
	source := rel(report.Artifact.Path)

	switch report.Status {
	case workflows.StatusSkipped:
		fmt.Fprintf(b, "%s %s %s\n", ui.MarkSkip(), source, ui.Muted.Sprint(report.SkipReason.String()))
		return
	case workflows.StatusPlanned:
		for _, d := range report.Destinations {
			fmt.Fprintf(b, "%s %s would be restored to %s\n", ui.MarkHint(), source, ui.Path.Sprint(rel(d.Path)))
		}
		return
	}

	if report.Err != nil {
		fmt.Fprintf(b, "%s %s %s\n", ui.MarkError(), source, report.Err)
		return
	}

	for _, d := range report.Destinations {
		if !d.OK() {
			fmt.Fprintf(b, "%s %s could not be written to %s: %v\n", ui.MarkError(), source, ui.Path.Sprint(rel(d.Path)), d.Err)
			continue
		}
		fmt.Fprintf(b, "%s %s restored to %s %s\n", ui.MarkSuccess(), source, ui.Path.Sprint(rel(d.Path)),
			ui.Muted.Sprint(humanize.Bytes(uint64(d.Bytes))))
	}
	for _, p := range report.Patches {
		writePatchLine(b, p, rel)
	}
}

func writePatchLine(b *strings.Builder, p secrets.PatchResult, rel func(string) string) {
	switch {
	case p.Missing:
		fmt.Fprintf(b, "    %s Missing plist key %s, %s left untouched\n", ui.MarkWarning(), ui.Highlight.Sprint(p.Key), ui.Highlight.Sprint(p.Placeholder))
	case p.WrongType:
		fmt.Fprintf(b, "    %s Plist key %s is not a string, %s left untouched\n", ui.MarkWarning(), ui.Highlight.Sprint(p.Key), ui.Highlight.Sprint(p.Placeholder))
	case p.Err != nil:
		fmt.Fprintf(b, "    %s Could not patch %s in %s: %v\n", ui.MarkError(), ui.Highlight.Sprint(p.Placeholder), ui.Path.Sprint(rel(p.Target)), p.Err)
	default:
		fmt.Fprintf(b, "    %s Patched %d instances of %s in %s\n", ui.MarkSuccess(), p.Count, ui.Highlight.Sprint(p.Placeholder), ui.Path.Sprint(rel(p.Target)))
	}
}

func formatSummary(result *workflows.RestoreResult) string {
	counts := result.Counts()
	total := len(result.Artifacts)

	if result.DryRun {
		return fmt.Sprintf("%s Dry run: %d of %d secrets would be restored, %d skipped\n",
			ui.MarkHint(), counts[workflows.StatusPlanned], total, counts[workflows.StatusSkipped])
	}

	line := fmt.Sprintf("%d of %d secrets restored, %d skipped", counts[workflows.StatusRestored], total, counts[workflows.StatusSkipped])
	if n := counts[workflows.StatusPartial]; n > 0 {
		line += fmt.Sprintf(", %d partial", n)
	}
	if n := counts[workflows.StatusFailed]; n > 0 {
		line += fmt.Sprintf(", %d failed", n)
	}

	mark := ui.MarkSuccess()
	if result.HasFailures() {
		mark = ui.MarkError()
	}
	return fmt.Sprintf("%s %s %s\n", mark, line, ui.Muted.Sprint("run "+result.RunID))
}

// relativeTo shortens path for display when it lives under root.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
