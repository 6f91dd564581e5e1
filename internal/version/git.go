// Package version wraps the git binary so every filesystem write the
// knowledge store makes can be staged and committed into a private
// history, the same way this codebase shells out to git rather than
// pulling in a pure-Go git library.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"knowvault/internal/logging"
)

// Store wraps a git repository rooted at baseDir.
type Store struct {
	baseDir string
}

// Open returns a Store for baseDir, initializing a git repository there if
// one does not already exist. Init is idempotent.
func Open(ctx context.Context, baseDir string) (*Store, error) {
	s := &Store{baseDir: baseDir}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init runs `git init` if baseDir has no `.git` directory yet, and then
// writes an ignore entry for baseDir into the parent directory's
// .gitignore when that parent is a git repository, so the private history
// doesn't get swept into the caller's own repository.
func (s *Store) Init(ctx context.Context) error {
	gitDir := filepath.Join(s.baseDir, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("create base dir: %w", err)
	}
	if _, _, err := s.run(ctx, "init"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	s.ignoreFromEnclosingProject()
	logging.Git("initialized version store at %s", s.baseDir)
	return nil
}

// ignoreFromEnclosingProject adds baseDir to the .gitignore of baseDir's
// parent directory (creating the file if needed), if that parent directory
// holds a .git. Ancestors above the parent are not examined. This is a
// best-effort convenience; failures are logged, never returned.
func (s *Store) ignoreFromEnclosingProject() {
	parent := filepath.Dir(s.baseDir)
	if _, err := os.Stat(filepath.Join(parent, ".git")); err != nil {
		return
	}
	ignorePath := filepath.Join(parent, ".gitignore")
	entry := filepath.Base(s.baseDir) + "/"

	existing, _ := os.ReadFile(ignorePath)
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == entry {
			return
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.GitWarn("could not update enclosing .gitignore: %v", err)
		return
	}
	defer f.Close()
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		f.WriteString("\n")
	}
	f.WriteString(entry + "\n")
}

// Stage runs `git add` on the given paths, relative to baseDir.
func (s *Store) Stage(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if _, stderr, err := s.run(ctx, args...); err != nil {
		return fmt.Errorf("git add: %w (%s)", err, stderr)
	}
	return nil
}

// Commit runs `git commit` with message. A clean working tree is a no-op,
// not an error: commits are a convenience layer over files that are
// already durable, so "nothing changed" is a normal outcome. Commit
// failures are logged and swallowed for the same reason -- git history is
// never a correctness dependency.
func (s *Store) Commit(ctx context.Context, message string) error {
	stdout, _, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		logging.GitWarn("status check failed, skipping commit: %v", err)
		return nil
	}
	if strings.TrimSpace(stdout) == "" {
		return nil
	}
	if _, stderr, err := s.run(ctx, "commit", "-m", message); err != nil {
		logging.GitWarn("commit failed: %v (%s)", err, stderr)
		return nil
	}
	logging.Git("committed: %s", message)
	return nil
}

// LogEntry is one line of commit history for a path.
type LogEntry struct {
	Rev     string
	Date    string
	Message string
}

// Log returns up to limit most-recent commits touching path.
func (s *Store) Log(ctx context.Context, path string, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	args := []string{"log", "-n", strconv.Itoa(limit), "--pretty=format:%H%x1f%cI%x1f%s", "--", path}
	stdout, stderr, err := s.run(ctx, args...)
	if err != nil {
		logging.GitWarn("log failed for %s: %v (%s)", path, err, stderr)
		return nil, nil
	}
	if strings.TrimSpace(stdout) == "" {
		return nil, nil
	}
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimRight(stdout, "\n"), "\n") {
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, LogEntry{Rev: parts[0], Date: parts[1], Message: parts[2]})
	}
	return entries, nil
}

// Diff returns the unified diff of path between two revisions.
func (s *Store) Diff(ctx context.Context, path, revA, revB string) (string, error) {
	stdout, stderr, err := s.run(ctx, "diff", revA, revB, "--", path)
	if err != nil {
		return "", fmt.Errorf("git diff: %w (%s)", err, stderr)
	}
	return stdout, nil
}

// BlobAtRev returns the content of path as it existed at rev.
func (s *Store) BlobAtRev(ctx context.Context, path, rev string) (string, error) {
	stdout, stderr, err := s.run(ctx, "show", fmt.Sprintf("%s:%s", rev, path))
	if err != nil {
		return "", fmt.Errorf("git show: %w (%s)", err, stderr)
	}
	return stdout, nil
}

func (s *Store) run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.baseDir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
