package audit

import (
	"encoding/json"
	"os"
	"time"
)

// Entry represents a single restore run.
type Entry struct {
	Timestamp string `json:"ts"`     // RFC3339 with microseconds.
	RunID     string `json:"run_id"` // UUID of the run.
	Operation string `json:"op"`     // Operation name.
	RepoRoot  string `json:"repo"`   // Repository the run restored into.

	DryRun   bool     `json:"dry_run,omitempty"`
	APIs     []string `json:"apis,omitempty"`     // Allow-list, if any.
	Artifact string   `json:"artifact,omitempty"` // Artifact root override, if any.

	// Encrypted artifact paths by outcome.
	Planned  []string `json:"planned,omitempty"` // Dry runs only.
	Restored []string `json:"restored,omitempty"`
	Partial  []string `json:"partial,omitempty"`
	Skipped  []string `json:"skipped,omitempty"`
	Failed   []string `json:"failed,omitempty"`
}

// Log appends an entry to the audit log at path.
// If logging fails, it returns the error; callers treat it as a warning.
// An empty path disables auditing.
func Log(path string, entry Entry) error {
	if path == "" {
		return nil
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	// #nosec G306 -- audit log holds paths only, never secret values.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
