package secrets

import (
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
)

// WriteResult is the outcome of writing plaintext to one destination.
type WriteResult struct {
	Path  string
	Bytes int
	Err   error
}

// OK reports whether the write succeeded.
func (w WriteResult) OK() bool {
	return w.Err == nil
}

// WriteAll writes plaintext to every destination, overwriting existing
// content. A failed destination does not stop the remaining writes. Parent
// directories are never created.
func WriteAll(plaintext []byte, destinations []string) []WriteResult {
	results := make([]WriteResult, 0, len(destinations))
	for _, dest := range destinations {
		result := WriteResult{Path: dest}
		if err := os.WriteFile(dest, plaintext, 0644); err != nil { // #nosec G306 -- restored service files are read by build tooling.
			result.Err = fmt.Errorf("%w: %v", kerrors.ErrWriteFailed, err)
		} else {
			result.Bytes = len(plaintext)
		}
		results = append(results, result)
	}
	return results
}
