package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"knowvault/internal/codec"
	"knowvault/internal/store"
)

const testDim = 8

// fakeEmbedder returns a deterministic vector derived from text length and
// byte sum, so near-identical inputs land near each other without needing a
// real embedding backend in tests.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	return fakeVector(text), nil
}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = fakeVector(t)
	}
	return out, nil
}

func (fakeEmbedder) HealthCheck(_ context.Context) error { return nil }
func (fakeEmbedder) Dimensions() int                     { return testDim }

func fakeVector(text string) []float32 {
	vec := make([]float32, testDim)
	var sum float32
	for i, b := range []byte(text) {
		vec[i%testDim] += float32(b)
	}
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	return vec
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	baseDir := t.TempDir()
	idx, err := store.Open(filepath.Join(baseDir, ".index", "search.sqlite"), testDim)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	return Open(baseDir, idx, nil, fakeEmbedder{}, store.DefaultSearchOptions())
}

func TestCreateWritesFileAndIndexesEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, err := s.Create(ctx, CreateInput{
		Title:   "Use SQLite for search",
		Type:    "decision",
		Content: "We chose SQLite with FTS5 and a vector table for hybrid search.",
		Tags:    []string{"tech/storage"},
	})
	require.NoError(t, err)
	require.Equal(t, "dec-001", result.ID)
	require.Contains(t, result.FilePath, "semantic/decisions")

	entry, err := s.Read(result.ID)
	require.NoError(t, err)
	require.Equal(t, "Use SQLite for search", entry.Title)
	require.Equal(t, []string{"tech/storage"}, entry.Tags)
}

func TestCreateReportsExistingTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{Title: "First", Type: "note", Content: "alpha content", Tags: []string{"topic/a"}})
	require.NoError(t, err)

	result, err := s.Create(ctx, CreateInput{Title: "Second", Type: "note", Content: "beta content", Tags: []string{"topic/a", "topic/b"}})
	require.NoError(t, err)
	require.Equal(t, []string{"topic/a"}, result.ExistingTags)
}

func TestUpdateRewritesFileAndSuggestsConnectionsOnBigChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateInput{Title: "Note one", Type: "note", Content: "short body", Tags: nil})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateInput{Title: "Note two", Type: "note", Content: "a related idea about the same short body topic", Tags: nil})
	require.NoError(t, err)

	longer := "this is a much longer replacement body that triples the content length by far"
	res, err := s.Update(ctx, created.FilePath, longer, "expanding the note")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.Indexed)

	entry, err := s.Read(created.ID)
	require.NoError(t, err)
	require.Equal(t, longer, entry.Content)
}

func TestDeleteRemovesEntryAndFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateInput{Title: "Temp", Type: "incident", Content: "something broke"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))

	_, err = s.Read(created.ID)
	require.Error(t, err)
}

func TestConnectIsSymmetricInFrontmatter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, CreateInput{Title: "Entry A", Type: "decision", Content: "decision content a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "Entry B", Type: "decision", Content: "decision content b"})
	require.NoError(t, err)

	require.NoError(t, s.Connect(ctx, a.ID, b.ID, "related", "see also"))

	entryA, err := s.Read(a.ID)
	require.NoError(t, err)
	require.Len(t, entryA.Connections, 1)
	require.Equal(t, b.ID, entryA.Connections[0].Target)

	entryB, err := s.Read(b.ID)
	require.NoError(t, err)
	require.Len(t, entryB.Connections, 1)
	require.Equal(t, a.ID, entryB.Connections[0].Target)

	for _, side := range []struct{ path, target string }{{a.FilePath, b.ID}, {b.FilePath, a.ID}} {
		raw, err := os.ReadFile(filepath.Join(s.baseDir, side.path))
		require.NoError(t, err)
		doc, err := codec.Parse(string(raw))
		require.NoError(t, err)
		conns := codec.ExtractMeta(doc.Frontmatter).Connections
		require.Len(t, conns, 1)
		require.Equal(t, side.target, conns[0].Target)
		require.Equal(t, "related", conns[0].Type)
	}
}

func TestTraverseFindsConnectedEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, CreateInput{Title: "Root", Type: "pattern", Content: "root pattern content"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "Child", Type: "pattern", Content: "child pattern content"})
	require.NoError(t, err)

	require.NoError(t, s.Connect(ctx, a.ID, b.ID, "builds_on", ""))

	hits, err := s.Traverse(a.ID, DirectionOutgoing, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, b.ID, hits[0].ID)
	require.Equal(t, "builds_on", hits[0].ConnectionType)
}

func TestSearchReturnsCreatedEntryAndTouchesAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateInput{
		Title:   "Hybrid search design",
		Type:    "decision",
		Content: "reciprocal rank fusion combines fts and vector legs",
	})
	require.NoError(t, err)

	results, total, err := s.Search(ctx, "reciprocal rank fusion", SearchOptions{Limit: 5, MinScore: 0.01})
	require.NoError(t, err)
	require.GreaterOrEqual(t, total, 1)

	var found bool
	for _, r := range results {
		if r.ID == created.ID {
			found = true
		}
	}
	require.True(t, found)

	entry, err := s.Read(created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.AccessCount)
}

func TestSearchFiltersByTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{Title: "Tagged", Type: "note", Content: "content about apples", Tags: []string{"fruit/apple"}})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{Title: "Untagged", Type: "note", Content: "content about oranges", Tags: []string{"fruit/orange"}})
	require.NoError(t, err)

	results, _, err := s.Search(ctx, "content", SearchOptions{Limit: 10, MinScore: 0.01, Tags: []string{"fruit/apple"}})
	require.NoError(t, err)
	for _, r := range results {
		require.Contains(t, r.Tags, "fruit/apple")
	}
}

func TestRebuildRepopulatesIndexFromFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateInput{Title: "Durable", Type: "entity", Content: "entity content for rebuild"})
	require.NoError(t, err)

	// Re-run Rebuild against the files already on disk: it must find and
	// re-index them.
	n, err := s.Rebuild(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)

	entry, err := s.Read(created.ID)
	require.NoError(t, err)
	require.Equal(t, "Durable", entry.Title)
}
