package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/restore-secrets/internal/secrets/secretstest"
	"github.com/PolarWolf314/restore-secrets/internal/workflows"
)

// runDoctorCLI runs the doctor command and returns its output and exit code.
func runDoctorCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	t.Cleanup(ResetGlobalState)

	cli := createTestCLI(append([]string{"doctor"}, args...), nil)
	exitCode := 0
	SetDoctorExitFunc(func(code int) { exitCode = code })

	output, err := captureOutput(cli.Execute)
	if err != nil {
		t.Fatalf("doctor failed: %v\nOutput: %s", err, output)
	}
	return output, exitCode
}

func TestDoctorCommand_Warnings(t *testing.T) {
	repo := setupRepo(t)
	secretstest.WriteFile(t, filepath.Join(repo.Root, ".restore-secrets.toml"), []byte(`decryptor = "openpgp"`))

	output, code := runDoctorCLI(t, "--repo_dir", repo.Root)

	if code != 1 {
		t.Errorf("exit code = %d, want 1 (no .gitignore)\nOutput: %s", code, output)
	}
	for _, want := range []string{"Secrets directory: Found 3 encrypted files", "No .gitignore file found", "Suggestions:"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestDoctorCommand_ErrorsJSON(t *testing.T) {
	output, code := runDoctorCLI(t, "--repo_dir", t.TempDir(), "--json")

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	var result struct {
		Checks  []map[string]string     `json:"checks"`
		Summary workflows.DoctorSummary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if result.Summary.Errors == 0 {
		t.Errorf("expected errors in summary: %+v", result.Summary)
	}
	found := false
	for _, c := range result.Checks {
		if c["name"] == "Secrets directory" && c["status"] == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("Secrets directory check should report an error:\n%s", output)
	}
}
