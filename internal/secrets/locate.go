package secrets

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSuffix is the extension carried by every encrypted artifact.
const DefaultSuffix = ".gpg"

// Kind is the credential family of an artifact, decided once at discovery.
type Kind int

const (
	// KindUnknown artifacts are discovered but never distributed.
	KindUnknown Kind = iota
	// KindServicesJSON is an Android google-services.json file.
	KindServicesJSON
	// KindServicePlist is an Apple GoogleService-Info.plist file.
	KindServicePlist
)

func (k Kind) String() string {
	switch k {
	case KindServicesJSON:
		return "google-services"
	case KindServicePlist:
		return "GoogleService"
	default:
		return "unknown"
	}
}

// KindOf classifies a decrypted file name. The naming convention is the only
// signal available; content is never inspected.
func KindOf(fileName string) Kind {
	switch {
	case strings.Contains(fileName, "google-services"):
		return KindServicesJSON
	case strings.Contains(fileName, "GoogleService"):
		return KindServicePlist
	default:
		return KindUnknown
	}
}

// Artifact is one encrypted file found under the secrets root.
type Artifact struct {
	// Path is the absolute path of the encrypted file.
	Path string

	// APIName is the name of the directory containing the file, e.g. "auth".
	APIName string

	// FileName is the base name with the encryption suffix removed.
	FileName string

	Kind Kind
}

// NewArtifact builds an Artifact from the path of an encrypted file.
func NewArtifact(path, suffix string) Artifact {
	fileName := strings.TrimSuffix(filepath.Base(path), suffix)
	return Artifact{
		Path:     path,
		APIName:  filepath.Base(filepath.Dir(path)),
		FileName: fileName,
		Kind:     KindOf(fileName),
	}
}

var errStopWalk = errors.New("stop walk")

// Locate yields every file under root whose name ends with suffix, at any
// depth, in traversal order. A missing root yields nothing.
func Locate(root, suffix string) iter.Seq[Artifact] {
	return func(yield func(Artifact) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return
		}
		info, err := os.Stat(absRoot)
		if err != nil || !info.IsDir() {
			return
		}

		pattern := "**/*" + suffix
		_ = doublestar.GlobWalk(os.DirFS(absRoot), pattern, func(path string, d fs.DirEntry) error {
			if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
				return nil
			}
			if !yield(NewArtifact(filepath.Join(absRoot, filepath.FromSlash(path)), suffix)) {
				return errStopWalk
			}
			return nil
		})
	}
}

// FindArtifacts collects the output of Locate.
func FindArtifacts(root, suffix string) []Artifact {
	var artifacts []Artifact
	for a := range Locate(root, suffix) {
		artifacts = append(artifacts, a)
	}
	return artifacts
}
