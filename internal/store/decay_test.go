package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecayCandidatesSkipsRecentEntries(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	row.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	row.UpdatedAt = row.CreatedAt
	require.NoError(t, idx.Insert(row))

	candidates, err := idx.DecayCandidates(DefaultDecayConfig())
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestDecayCandidatesFlagsStaleUnconnectedEntry(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	stale := time.Now().UTC().Add(-200 * 24 * time.Hour).Format(time.RFC3339)
	row.CreatedAt = stale
	row.UpdatedAt = stale
	require.NoError(t, idx.Insert(row))

	candidates, err := idx.DecayCandidates(DefaultDecayConfig())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "dec-001", candidates[0].ID)
}

func TestDecayCandidatesSkipsEntriesWithActiveConnections(t *testing.T) {
	idx := newTestIndex(t)
	stale := time.Now().UTC().Add(-200 * 24 * time.Hour).Format(time.RFC3339)

	a := sampleRow("dec-001")
	a.CreatedAt, a.UpdatedAt = stale, stale
	require.NoError(t, idx.Insert(a))

	b := sampleRow("dec-002")
	b.CreatedAt, b.UpdatedAt = stale, stale
	require.NoError(t, idx.Insert(b))

	require.NoError(t, idx.Connect("dec-001", "dec-002", "related", ""))

	candidates, err := idx.DecayCandidates(DefaultDecayConfig())
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestDecayCandidatesSkipsFrequentlyAccessedEntries(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	stale := time.Now().UTC().Add(-200 * 24 * time.Hour).Format(time.RFC3339)
	row.CreatedAt, row.UpdatedAt = stale, stale
	require.NoError(t, idx.Insert(row))

	cfg := DefaultDecayConfig()
	for i := int64(0); i <= cfg.MaxAccessCount; i++ {
		require.NoError(t, idx.TouchAccess([]string{"dec-001"}))
	}

	candidates, err := idx.DecayCandidates(cfg)
	require.NoError(t, err)
	require.Empty(t, candidates)
}
