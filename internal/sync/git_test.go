package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// newTestRepo creates a bare remote and a clone of it with one commit on main.
func newTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	remoteDir := t.TempDir()
	run(t, remoteDir, "git", "init", "--bare")

	workDir := t.TempDir()
	run(t, workDir, "git", "clone", remoteDir, "repo")
	repoDir := filepath.Join(workDir, "repo")

	// Git needs user identity for commits.
	run(t, repoDir, "git", "config", "user.email", "test@test.com")
	run(t, repoDir, "git", "config", "user.name", "Test")
	run(t, repoDir, "git", "symbolic-ref", "HEAD", "refs/heads/main")

	if err := os.WriteFile(filepath.Join(repoDir, ".gitkeep"), []byte(""), 0o644); err != nil {
		t.Fatalf("write .gitkeep: %v", err)
	}
	run(t, repoDir, "git", "add", ".")
	run(t, repoDir, "git", "commit", "-m", "init")
	run(t, repoDir, "git", "push", "origin", "main")
	return repoDir
}

func TestGitDestination(t *testing.T) {
	repoDir := newTestRepo(t)
	dest := NewGitDestination(repoDir, "portfolio.jsonl", "main")

	// First write.
	data1 := []byte(`{"version":"1","type":"header","owner":"2vxsx-fae","land_count":0}` + "\n")
	if err := dest.Write(context.Background(), data1); err != nil {
		t.Fatalf("first write: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(repoDir, "portfolio.jsonl"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != string(data1) {
		t.Fatalf("file content mismatch: got %q", string(got))
	}
	if msg := lastCommit(t, repoDir); msg != "export: 2vxsx-fae portfolio (0 lands)" {
		t.Errorf("commit message = %q", msg)
	}

	// Second write with same data should be a no-op (no commit).
	before := commitCount(t, repoDir)
	if err := dest.Write(context.Background(), data1); err != nil {
		t.Fatalf("second write (no-op): %v", err)
	}
	if after := commitCount(t, repoDir); after != before {
		t.Errorf("commit count %s -> %s, want unchanged", before, after)
	}

	// Third write with different data should commit.
	data2 := []byte(`{"version":"1","type":"header","owner":"2vxsx-fae","land_count":1}` + "\n" +
		`{"type":"land","data":{"id":1}}` + "\n")
	if err := dest.Write(context.Background(), data2); err != nil {
		t.Fatalf("third write: %v", err)
	}

	got, err = os.ReadFile(filepath.Join(repoDir, "portfolio.jsonl"))
	if err != nil {
		t.Fatalf("read file after update: %v", err)
	}
	if string(got) != string(data2) {
		t.Fatalf("file content mismatch after update: got %q", string(got))
	}
	if msg := lastCommit(t, repoDir); msg != "export: 2vxsx-fae portfolio (1 lands)" {
		t.Errorf("commit message = %q", msg)
	}
}

func TestGitDestination_SubDirectory(t *testing.T) {
	repoDir := newTestRepo(t)
	dest := NewGitDestination(repoDir, "data/portfolio.jsonl", "main")

	data := []byte(`{"type":"header"}` + "\n")
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(repoDir, "data", "portfolio.jsonl"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("content mismatch: got %q", string(got))
	}
}

func TestGitDestination_RejectsNonExport(t *testing.T) {
	repoDir := newTestRepo(t)
	dest := NewGitDestination(repoDir, "portfolio.jsonl", "main")

	if err := dest.Write(context.Background(), []byte("hello\n")); err == nil {
		t.Fatal("expected error for data without an export header")
	}
	if _, err := os.Stat(filepath.Join(repoDir, "portfolio.jsonl")); !os.IsNotExist(err) {
		t.Errorf("file written for rejected data: %v", err)
	}
}

func lastCommit(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(output(t, dir, "git", "log", "-1", "--format=%s"))
}

func commitCount(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(output(t, dir, "git", "rev-list", "--count", "HEAD"))
}

func output(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("%s %v failed: %v", name, args, err)
	}
	return string(out)
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%s %v failed: %v", name, args, err)
	}
}
