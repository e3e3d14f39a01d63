package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"howett.net/plist"
)

// Placeholder maps a key of the service plist to the literal token it
// replaces in Info.plist.
type Placeholder struct {
	Key   string
	Token string
}

// DefaultPlaceholders are patched into Info.plist after a service plist is restored.
var DefaultPlaceholders = []Placeholder{
	{Key: "REVERSED_CLIENT_ID", Token: "REPLACE_WITH_REVERSED_CLIENT_ID"},
	{Key: "BUNDLE_ID", Token: "$(PRODUCT_BUNDLE_IDENTIFIER)"},
}

// PatchResult is the outcome of one placeholder substitution.
type PatchResult struct {
	Target      string
	Key         string
	Placeholder string

	// Count is the number of placeholder occurrences replaced.
	Count int

	// Missing is set when the service plist lacks Key; Err then wraps ErrMissingField.
	Missing bool
	// WrongType is set when Key holds something other than a string; Err
	// then wraps ErrFieldType.
	WrongType bool
	Err       error
}

// OK reports whether the patch step ran to completion.
func (p PatchResult) OK() bool {
	return p.Err == nil
}

// Skipped reports whether the step was skipped for want of a usable value.
// Skips are warnings, not failures.
func (p PatchResult) Skipped() bool {
	return p.Missing || p.WrongType
}

// NeedsPatching reports whether a written destination feeds Info.plist.
// Any destination ending in ".plist" does, whatever artifact produced it.
func NeedsPatching(destination string) bool {
	return strings.HasSuffix(destination, ".plist")
}

// InfoPlistPath is the Info.plist patched for a restored service plist.
func InfoPlistPath(servicePlist string) string {
	return filepath.Join(filepath.Dir(servicePlist), "testapp", "Info.plist")
}

// ParseServicePlist decodes a service plist (XML, binary or OpenStep).
func ParseServicePlist(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidDocument, err)
	}
	return doc, nil
}

// PatchFile replaces every occurrence of placeholder in path with value and
// returns how many were replaced. With no occurrences the file is left untouched.
func PatchFile(path, placeholder, value string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", kerrors.ErrPatchFailed, err)
	}

	text := string(data)
	count := strings.Count(text, placeholder)
	if count == 0 {
		return 0, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", kerrors.ErrPatchFailed, err)
	}
	patched := strings.ReplaceAll(text, placeholder, value)
	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("%w: %v", kerrors.ErrPatchFailed, err)
	}
	return count, nil
}

// PatchServicePlist patches the Info.plist next to servicePlist using the
// values found in doc. Each placeholder is independent: a missing or
// non-string key only skips its own step.
func PatchServicePlist(servicePlist string, doc map[string]any, placeholders []Placeholder) []PatchResult {
	target := InfoPlistPath(servicePlist)
	results := make([]PatchResult, 0, len(placeholders))

	for _, p := range placeholders {
		result := PatchResult{Target: target, Key: p.Key, Placeholder: p.Token}

		value, present, ok := stringField(doc, p.Key)
		switch {
		case !present:
			result.Missing = true
			result.Err = fmt.Errorf("%w: %s in %s", kerrors.ErrMissingField, p.Key, servicePlist)
			results = append(results, result)
			continue
		case !ok:
			result.WrongType = true
			result.Err = fmt.Errorf("%w: %s in %s is %T, not a string", kerrors.ErrFieldType, p.Key, servicePlist, doc[p.Key])
			results = append(results, result)
			continue
		}

		result.Count, result.Err = PatchFile(target, p.Token, value)
		results = append(results, result)
	}

	return results
}

func stringField(doc map[string]any, key string) (value string, present, ok bool) {
	raw, present := doc[key]
	if !present {
		return "", false, false
	}
	value, ok = raw.(string)
	return value, true, ok
}
