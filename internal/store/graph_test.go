package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustInsert(t *testing.T, idx *Index, id, entryType string) {
	t.Helper()
	row := sampleRow(id)
	row.Type = entryType
	row.FilePath = entryType + "/" + id + ".md"
	require.NoError(t, idx.Insert(row))
}

func TestInverseTypeKnownAndUnknown(t *testing.T) {
	require.Equal(t, "extended_by", InverseType("builds_on"))
	require.Equal(t, "builds_on", InverseType("extended_by"))
	require.Equal(t, "related", InverseType("related"))
	require.Equal(t, "mystery", InverseType("mystery"))
}

func TestConnectCreatesBothDirections(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")
	mustInsert(t, idx, "dec-002", "decision")

	require.NoError(t, idx.Connect("dec-001", "dec-002", "builds_on", "follow-up"))

	out, err := idx.GetConnections("dec-001", DirectionOutgoing, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "dec-002", out[0].TargetID)
	require.Equal(t, "builds_on", out[0].Type)

	in, err := idx.GetConnections("dec-002", DirectionOutgoing, nil)
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.Equal(t, "dec-001", in[0].TargetID)
	require.Equal(t, "extended_by", in[0].Type)
}

func TestConnectIsIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")
	mustInsert(t, idx, "dec-002", "decision")

	require.NoError(t, idx.Connect("dec-001", "dec-002", "related", "first"))
	require.NoError(t, idx.Connect("dec-001", "dec-002", "related", "updated note"))

	out, err := idx.GetConnections("dec-001", DirectionOutgoing, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "updated note", out[0].Note)
}

func TestGetActiveConnectionCountExcludesSupersession(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")
	mustInsert(t, idx, "dec-002", "decision")
	mustInsert(t, idx, "dec-003", "decision")

	require.NoError(t, idx.Connect("dec-001", "dec-002", "supersedes", ""))
	require.NoError(t, idx.Connect("dec-001", "dec-003", "related", ""))

	total, err := idx.GetConnectionCount("dec-001")
	require.NoError(t, err)
	require.Equal(t, 2, total)

	active, err := idx.GetActiveConnectionCount("dec-001")
	require.NoError(t, err)
	require.Equal(t, 1, active)
}

func TestTraverseFindsDepthTwoAndClampsBeyond(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "a", "decision")
	mustInsert(t, idx, "b", "decision")
	mustInsert(t, idx, "c", "decision")
	require.NoError(t, idx.Connect("a", "b", "related", ""))
	require.NoError(t, idx.Connect("b", "c", "related", ""))

	hits, err := idx.Traverse("a", DirectionBoth, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "b", hits[0].ID)

	hits, err = idx.Traverse("a", DirectionBoth, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestTraverseBothLabelsIncomingEdgeWithInverseType(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "a", "decision")
	mustInsert(t, idx, "b", "decision")
	mustInsert(t, idx, "c", "decision")

	require.NoError(t, idx.Connect("a", "b", "related", ""))
	require.NoError(t, idx.Connect("c", "a", "builds_on", ""))

	hits, err := idx.Traverse("a", DirectionBoth, 1, nil)
	require.NoError(t, err)

	byID := map[string]TraversalHit{}
	for _, h := range hits {
		byID[h.ID] = h
	}
	require.Equal(t, "related", byID["b"].Via)
	require.Equal(t, "extended_by", byID["c"].Via)
}

func TestGetEntriesByTagsMatchesSegmentPrefix(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	row.Tags = []string{"tech/ai/claude"}
	require.NoError(t, idx.Insert(row))

	matches, err := idx.GetEntriesByTags([]string{"tech/ai"})
	require.NoError(t, err)
	require.Equal(t, []string{"dec-001"}, matches)

	none, err := idx.GetEntriesByTags([]string{"tech/aidata"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestExistingTagsReturnsOnlyKnownTags(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")

	existing, err := idx.ExistingTags([]string{"storage", "brand-new"})
	require.NoError(t, err)
	require.Equal(t, []string{"storage"}, existing)
}

func TestGetConnectedEntryIdsExcludesSelf(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "a", "decision")
	mustInsert(t, idx, "b", "decision")
	require.NoError(t, idx.Connect("a", "b", "related", ""))

	ids, err := idx.GetConnectedEntryIds("a")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids)
}

func TestDeleteCascadesConnectionsAndTags(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "a", "decision")
	mustInsert(t, idx, "b", "decision")
	require.NoError(t, idx.Connect("a", "b", "related", ""))

	require.NoError(t, idx.Delete("a"))

	remaining, err := idx.GetConnections("b", DirectionBoth, nil)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
