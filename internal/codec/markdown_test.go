package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSerializeRoundTrip(t *testing.T) {
	raw := "---\nid: dec-001\ntitle: Use Bun\ntype: decision\ntags:\n  - tech/runtime\ncreated: 2026-01-01T00:00:00Z\nupdated: 2026-01-01T00:00:00Z\nconnections: []\n---\n\nWe decided to use Bun.\n"

	doc, err := Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, doc.Frontmatter)

	meta := ExtractMeta(doc.Frontmatter)
	require.Equal(t, "dec-001", meta.ID)
	require.Equal(t, "Use Bun", meta.Title)
	require.Equal(t, []string{"tech/runtime"}, meta.Tags)

	out, err := Serialize(doc)
	require.NoError(t, err)

	doc2, err := Parse(out)
	require.NoError(t, err)
	meta2 := ExtractMeta(doc2.Frontmatter)
	require.Equal(t, meta.ID, meta2.ID)
	require.Equal(t, meta.Title, meta2.Title)
	require.Equal(t, meta.Tags, meta2.Tags)
}

func TestParseNoFrontmatter(t *testing.T) {
	doc, err := Parse("just a body, no frontmatter at all")
	require.NoError(t, err)
	require.Nil(t, doc.Frontmatter)
	require.Equal(t, "just a body, no frontmatter at all", doc.Body)
}

func TestParseMalformedYamlNeverErrors(t *testing.T) {
	raw := "---\nid: [unterminated\n---\n\nbody text\n"
	doc, err := Parse(raw)
	require.NoError(t, err)
	require.Nil(t, doc.Frontmatter)
	require.Equal(t, raw, doc.Body)
}

func TestExtractMetaLegacyNumericTimestamp(t *testing.T) {
	raw := "---\nid: 3f2b1c4d-0000-0000-0000-000000000000\ntitle: Old Note\ntype: note\ncreatedAt: 1700000000000\nupdatedAt: 1700000000000\n---\n\nlegacy body\n"
	doc, err := Parse(raw)
	require.NoError(t, err)
	meta := ExtractMeta(doc.Frontmatter)
	require.True(t, meta.Legacy)
	require.NotEmpty(t, meta.Created)
}

func TestApplyMetaPreservesKeyOrderOnUpdate(t *testing.T) {
	raw := "---\ntitle: Original\nid: dec-002\ntype: decision\ntags: []\ncreated: 2026-01-01T00:00:00Z\nupdated: 2026-01-01T00:00:00Z\nconnections: []\n---\n\nbody\n"
	doc, err := Parse(raw)
	require.NoError(t, err)

	meta := ExtractMeta(doc.Frontmatter)
	meta.Updated = "2026-02-01T00:00:00Z"
	ApplyMeta(doc.Frontmatter, meta)

	out, err := Serialize(doc)
	require.NoError(t, err)

	doc2, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, "title", doc2.Frontmatter.Content[0].Value)
	require.Equal(t, "id", doc2.Frontmatter.Content[2].Value)
}

func TestSerializeBodyOnlyWhenNoFrontmatter(t *testing.T) {
	doc := &Document{Body: "plain body"}
	out, err := Serialize(doc)
	require.NoError(t, err)
	require.Equal(t, "plain body", out)
}
