// Package testutil scaffolds throwaway Mercurial repositories for
// integration tests. Tests that need a real hg binary skip when none is
// installed.
package testutil

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireHg aborts the calling test when hg is not present on PATH.
func RequireHg(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("hg")
	if err != nil {
		t.Skip("skipping: hg binary not available")
	}
	return path
}

// InitRepo creates a fresh repository under a temp directory with a fixed
// username so commits work without user-level configuration.
func InitRepo(t *testing.T) string {
	t.Helper()
	RequireHg(t)
	dir := t.TempDir()
	RunHg(t, dir, "init")
	hgrc := filepath.Join(dir, ".hg", "hgrc")
	content := "[ui]\nusername = easyhg test <test@example.com>\n"
	if err := os.WriteFile(hgrc, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write hgrc: %v", err)
	}
	return dir
}

// RunHg runs one hg command in dir and fails the test on a non-zero exit.
func RunHg(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("hg", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("hg %v failed: %v\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String()
}

// WriteFile drops content at a path relative to the repository root.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// CommitFile writes, adds, and commits one file in a single step.
func CommitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	WriteFile(t, dir, name, content)
	RunHg(t, dir, "add", name)
	RunHg(t, dir, "commit", "-m", message)
}
