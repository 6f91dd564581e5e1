package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDim = 4

func newTestIndex(t *testing.T) *Index {
	idx, err := Open(filepath.Join(t.TempDir(), "search.sqlite"), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func sampleRow(id string) EntryRow {
	return EntryRow{
		ID:        id,
		FilePath:  "semantic/decisions/" + id + ".md",
		Content:   "we decided to use sqlite for the index",
		Type:      "decision",
		Title:     "Use SQLite",
		Tags:      []string{"storage", "decision"},
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	require.NoError(t, idx.Insert(row))

	got, err := idx.Get("dec-001")
	require.NoError(t, err)
	require.Equal(t, row.Title, got.Title)
	require.Equal(t, row.FilePath, got.FilePath)
	require.ElementsMatch(t, row.Tags, got.Tags)
	require.Equal(t, int64(0), got.AccessCount)
}

func TestGetByPath(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-002")
	require.NoError(t, idx.Insert(row))

	got, err := idx.GetByPath(row.FilePath)
	require.NoError(t, err)
	require.Equal(t, "dec-002", got.ID)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Get("dec-999")
	require.Error(t, err)
}

func TestUpdateReplacesContentAndTags(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-003")
	require.NoError(t, idx.Insert(row))

	row.Content = "we decided to switch to postgres instead"
	row.Title = "Switch to Postgres"
	row.Tags = []string{"storage", "reversal"}
	row.UpdatedAt = "2026-01-02T00:00:00Z"
	require.NoError(t, idx.Update(row))

	got, err := idx.Get("dec-003")
	require.NoError(t, err)
	require.Equal(t, "Switch to Postgres", got.Title)
	require.ElementsMatch(t, []string{"storage", "reversal"}, got.Tags)
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.Update(sampleRow("dec-missing"))
	require.Error(t, err)
}

func TestIdsByPrefixReturnsOnlyMatchingPrefix(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(sampleRow("dec-001")))
	require.NoError(t, idx.Insert(sampleRow("dec-002")))
	other := sampleRow("ent-001")
	other.FilePath = "semantic/entities/ent-001.md"
	other.Type = "entity"
	require.NoError(t, idx.Insert(other))

	ids, err := idx.IdsByPrefix("dec")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"dec-001", "dec-002"}, ids)
}

func TestListFiltersByType(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(sampleRow("dec-001")))
	ent := sampleRow("ent-001")
	ent.FilePath = "semantic/entities/ent-001.md"
	ent.Type = "entity"
	require.NoError(t, idx.Insert(ent))

	all, err := idx.List("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	decisions, err := idx.List("decision")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.Equal(t, "dec-001", decisions[0].ID)
}

func TestTouchAccessIncrementsCount(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(sampleRow("dec-001")))

	require.NoError(t, idx.TouchAccess([]string{"dec-001"}))
	require.NoError(t, idx.TouchAccess([]string{"dec-001"}))

	got, err := idx.Get("dec-001")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.AccessCount)
}

func TestDeleteRemovesEntry(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(sampleRow("dec-001")))
	require.NoError(t, idx.Delete("dec-001"))

	_, err := idx.Get("dec-001")
	require.Error(t, err)
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	idx := newTestIndex(t)
	require.Error(t, idx.Delete("dec-missing"))
}
