// ABOUTME: Integration tests for the exist CLI.
// ABOUTME: Builds the binary and runs a full tracking workflow against a temp data directory.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}

	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	existBinary := filepath.Join(t.TempDir(), "exist")

	buildCmd := exec.Command("go", "build", "-o", existBinary, "./cmd/exist")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir, "--backend", "sqlite"}, args...)
		cmd := exec.Command(existBinary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"))
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	mustRun := func(want string, args ...string) string {
		t.Helper()
		output, err := run(args...)
		if err != nil {
			t.Fatalf("exist %s failed: %v\n%s", strings.Join(args, " "), err, output)
		}
		if want != "" && !strings.Contains(output, want) {
			t.Errorf("exist %s: expected %q in output, got: %s", strings.Join(args, " "), want, output)
		}
		return output
	}

	mustRun("Added user harper", "user", "add", "harper")
	mustRun("Added group health", "group", "add", "health", "Health", "--priority", "1")
	mustRun("Added attribute sleep", "attribute", "add", "sleep", "Time asleep", "--type", "period", "--group", "health")
	mustRun("Added attribute steps", "attribute", "add", "steps", "Steps")
	mustRun("tracking Time asleep", "track", "harper", "sleep")
	mustRun("tracking Steps", "track", "harper", "steps")

	mustRun("7h 30m", "record", "harper", "sleep", "7h30m", "--day", "2025-03-01")
	mustRun("Recorded Steps", "record", "harper", "steps", "1000", "--day", "2025-03-01")

	output := mustRun("", "score", "harper")
	if !strings.HasPrefix(output, "1450") {
		t.Errorf("Expected score 1450, got: %s", output)
	}

	output = mustRun("Time asleep", "show", "harper")
	if !strings.Contains(output, "Health") {
		t.Errorf("Expected Health group in show output, got: %s", output)
	}

	output = mustRun("", "export", "markdown", "--user", "harper")
	if !strings.Contains(output, "**Score:** 1450") {
		t.Errorf("Expected score in markdown export, got: %s", output)
	}

	if output, err := run("record", "ghost", "steps", "1"); err == nil {
		t.Errorf("Expected error for unknown user, got: %s", output)
	}
}
