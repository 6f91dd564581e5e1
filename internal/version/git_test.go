package version

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func skipIfNoGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestOpenInitializesRepo(t *testing.T) {
	skipIfNoGit(t)
	dir := t.TempDir()

	_, err := Open(context.Background(), dir)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(dir, ".git"))
}

func TestCommitNoOpOnCleanTree(t *testing.T) {
	skipIfNoGit(t)
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, s.Commit(context.Background(), "nothing to commit"))

	entries, err := s.Log(context.Background(), ".", 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStageCommitAndLogRoundTrip(t *testing.T) {
	skipIfNoGit(t)
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)

	filePath := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(filePath, []byte("hello"), 0644))

	require.NoError(t, s.Stage(context.Background(), "note.md"))
	require.NoError(t, s.Commit(context.Background(), "add note"))

	entries, err := s.Log(context.Background(), "note.md", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "add note", entries[0].Message)

	blob, err := s.BlobAtRev(context.Background(), "note.md", entries[0].Rev)
	require.NoError(t, err)
	require.Equal(t, "hello", blob)
}

func TestIgnoreFromEnclosingProject(t *testing.T) {
	skipIfNoGit(t)
	parent := t.TempDir()
	cmd := exec.Command("git", "init")
	cmd.Dir = parent
	require.NoError(t, cmd.Run())

	baseDir := filepath.Join(parent, "vault")
	_, err := Open(context.Background(), baseDir)
	require.NoError(t, err)

	ignoreContent, err := os.ReadFile(filepath.Join(parent, ".gitignore"))
	require.NoError(t, err)
	require.Contains(t, string(ignoreContent), "vault/")
}
