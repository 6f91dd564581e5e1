package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"knowvault/internal/config"
)

func setupCLITest(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()
	baseDir = ws
	cfg = config.DefaultConfig()
	cfg.Store.BaseDir = ws
	cfg.Store.SqlitePath = ".index/test.sqlite"
}

func TestRunNoteCreatesEntry(t *testing.T) {
	setupCLITest(t)
	noteTitle = "First Decision"
	noteType = "decision"
	noteTags = []string{"storage"}
	noteConnections = nil
	defer func() { noteTitle, noteType, noteTags, noteConnections = "", "note", nil, nil }()

	err := runNote(&cobra.Command{}, []string{"we", "chose", "sqlite"})
	require.NoError(t, err)
}

func TestRunNoteRejectsBadConnectFlag(t *testing.T) {
	setupCLITest(t)
	noteTitle = "Bad Connection"
	noteType = "note"
	noteConnections = []string{"missing-colon"}
	defer func() { noteTitle, noteType, noteConnections = "", "note", nil }()

	err := runNote(&cobra.Command{}, []string{"content"})
	require.Error(t, err)
}

func TestRunReadRoundTripsCreatedEntry(t *testing.T) {
	setupCLITest(t)
	noteTitle = "Readable Entry"
	noteType = "note"
	noteTags = nil
	noteConnections = nil
	require.NoError(t, runNote(&cobra.Command{}, []string{"content", "to", "read"}))

	readByPath = false
	err := runRead(&cobra.Command{}, []string{"note-001"})
	require.NoError(t, err)
}

func TestRunForgetMissingEntryErrors(t *testing.T) {
	setupCLITest(t)
	err := runForget(&cobra.Command{}, []string{"note-999"})
	require.Error(t, err)
}

func TestRunStatsOnEmptyStore(t *testing.T) {
	setupCLITest(t)
	err := runStats(&cobra.Command{}, []string{})
	require.NoError(t, err)
}

func TestParseConnectionFlagsRoundTrip(t *testing.T) {
	conns, err := parseConnectionFlags([]string{"dec-001:related:a note", "dec-002:supersedes"})
	require.NoError(t, err)
	require.Len(t, conns, 2)
	require.Equal(t, "dec-001", conns[0].Target)
	require.Equal(t, "related", conns[0].Type)
	require.Equal(t, "a note", conns[0].Note)
	require.Equal(t, "dec-002", conns[1].Target)
	require.Equal(t, "supersedes", conns[1].Type)
	require.Empty(t, conns[1].Note)
}

func TestParseConnectionFlagsRejectsMissingType(t *testing.T) {
	_, err := parseConnectionFlags([]string{"dec-001"})
	require.Error(t, err)
}
