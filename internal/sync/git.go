package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination keeps the latest portfolio export committed in a local
// clone and pushes it to origin. Unchanged exports produce no commit.
type GitDestination struct {
	repo   string
	file   string // relative to repo
	branch string
}

// NewGitDestination returns a destination for an existing clone at repo.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	h, err := readHeader(data)
	if err != nil {
		return err
	}

	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// Fails harmlessly when origin has no such branch yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := d.replaceFile(data); err != nil {
		return err
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	staged, err := d.git(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return err
	}
	if staged == "" {
		return nil
	}

	msg := fmt.Sprintf("export: %s portfolio (%d lands)", h.Owner.Short(), h.LandCount)
	if _, err := d.git(ctx, "commit", "--quiet", "-m", msg); err != nil {
		return err
	}
	_, err = d.git(ctx, "push", "origin", d.branch)
	return err
}

// replaceFile writes data next to the target and renames it into place so a
// crashed export never leaves a truncated file in the working tree.
func (d *GitDestination) replaceFile(data []byte) error {
	target := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(d.file), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".landreg-export-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", d.file, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", d.file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", d.file, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", d.file, err)
	}
	return os.Rename(tmp.Name(), target)
}

// git runs one git command in the clone and returns its trimmed stdout.
// Failures carry git's stderr.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
