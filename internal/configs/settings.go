package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/restore-secrets/internal/errors"
	"github.com/PolarWolf314/restore-secrets/internal/secrets"
)

// FileName is the optional settings file at the repository root.
const FileName = ".restore-secrets.toml"

// Default values.
const (
	DefaultSecretsDir = "scripts/gha-encrypted"
	DefaultSuffix     = secrets.DefaultSuffix
	DefaultDecryptor  = "gpg"
	DefaultGPGPath    = "gpg"
)

type Placeholder struct {
	Key   string `toml:"key"`
	Token string `toml:"token"`
}

type Settings struct {
	SecretsDir   string        `toml:"secrets_dir"`
	Suffix       string        `toml:"suffix"`
	Decryptor    string        `toml:"decryptor"`
	GPGPath      string        `toml:"gpg_path"`
	APIs         []string      `toml:"apis"`
	ArtifactRoot string        `toml:"artifact"`
	AuditLog     string        `toml:"audit_log"`
	Placeholders []Placeholder `toml:"placeholders"`

	// Unknown lists keys in the settings file that were not recognised.
	Unknown []string `toml:"-"`
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() *Settings {
	return &Settings{
		SecretsDir:   DefaultSecretsDir,
		Suffix:       DefaultSuffix,
		Decryptor:    DefaultDecryptor,
		GPGPath:      DefaultGPGPath,
		Placeholders: fromSecrets(secrets.DefaultPlaceholders),
	}
}

func fromSecrets(ps []secrets.Placeholder) []Placeholder {
	out := make([]Placeholder, len(ps))
	for i, p := range ps {
		out[i] = Placeholder{Key: p.Key, Token: p.Token}
	}
	return out
}

// SecretsPlaceholders converts the configured placeholders for the patcher.
func (s *Settings) SecretsPlaceholders() []secrets.Placeholder {
	out := make([]secrets.Placeholder, len(s.Placeholders))
	for i, p := range s.Placeholders {
		out[i] = secrets.Placeholder{Key: p.Key, Token: p.Token}
	}
	return out
}

// LoadSettings reads <repoRoot>/.restore-secrets.toml over the defaults.
// A missing file is not an error.
func LoadSettings(repoRoot string) (*Settings, error) {
	settings := DefaultSettings()

	path := filepath.Join(repoRoot, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return settings, nil
	}

	// Decode into a zero value so an absent key keeps its default.
	var file Settings
	unknown, err := LoadTOML(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %v", kerrors.ErrInvalidSettings, path, err)
	}

	settings.merge(&file)
	settings.Unknown = unknown
	return settings, nil
}

func (s *Settings) merge(o *Settings) {
	if o.SecretsDir != "" {
		s.SecretsDir = o.SecretsDir
	}
	if o.Suffix != "" {
		s.Suffix = o.Suffix
	}
	if o.Decryptor != "" {
		s.Decryptor = o.Decryptor
	}
	if o.GPGPath != "" {
		s.GPGPath = o.GPGPath
	}
	if len(o.APIs) > 0 {
		s.APIs = o.APIs
	}
	if o.ArtifactRoot != "" {
		s.ArtifactRoot = o.ArtifactRoot
	}
	if o.AuditLog != "" {
		s.AuditLog = o.AuditLog
	}
	if len(o.Placeholders) > 0 {
		s.Placeholders = o.Placeholders
	}
}

// SecretsPath is the absolute secrets root for repoRoot.
func (s *Settings) SecretsPath(repoRoot string) string {
	if filepath.IsAbs(s.SecretsDir) {
		return s.SecretsDir
	}
	return filepath.Join(repoRoot, s.SecretsDir)
}

// AuditLogPath resolves the audit log relative to repoRoot. Empty disables auditing.
func (s *Settings) AuditLogPath(repoRoot string) string {
	if s.AuditLog == "" || filepath.IsAbs(s.AuditLog) {
		return s.AuditLog
	}
	return filepath.Join(repoRoot, s.AuditLog)
}

// Validate checks settings after flags have been applied.
func (s *Settings) Validate() error {
	if s.SecretsDir == "" {
		return fmt.Errorf("%w: secrets_dir is empty", kerrors.ErrInvalidSettings)
	}
	if !strings.HasPrefix(s.Suffix, ".") || strings.ContainsAny(s.Suffix, `*?[]{}\/`) {
		return fmt.Errorf("%w: suffix %q must be a literal extension such as .gpg", kerrors.ErrInvalidSettings, s.Suffix)
	}
	if filepath.IsAbs(s.ArtifactRoot) {
		return fmt.Errorf("%w: artifact %q must be relative to the repository root", kerrors.ErrInvalidSettings, s.ArtifactRoot)
	}
	for i, p := range s.Placeholders {
		if p.Key == "" || p.Token == "" {
			return fmt.Errorf("%w: placeholders[%d] needs both key and token", kerrors.ErrInvalidSettings, i)
		}
	}
	return nil
}
