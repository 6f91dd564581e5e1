package pathpolicy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"knowvault/internal/knowerrors"
)

func TestSlugExpandsUmlautsAndCollapses(t *testing.T) {
	require.Equal(t, "use-bun", Slug("Use Bun"))
	require.Equal(t, "datenschutz-gruende", Slug("Datenschutz Gründe"))
	require.Equal(t, "strasse", Slug("Straße"))
}

func TestSlugCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "word "
	}
	s := Slug(long)
	require.LessOrEqual(t, len(s), maxSlugLen)
}

func TestRelPathS1Scenario(t *testing.T) {
	rel, err := RelPath("decision", "dec-001", "Use Bun")
	require.NoError(t, err)
	require.Equal(t, "semantic/decisions/dec-001-use-bun.md", rel)
}

func TestResolveRejectsTraversal(t *testing.T) {
	_, err := Resolve("/tmp/base", "../etc/passwd")
	require.Error(t, err)
	require.True(t, knowerrors.Is(err, knowerrors.PathTraversal))
}

func TestResolveAcceptsNestedPath(t *testing.T) {
	out, err := Resolve("/tmp/base", "semantic/decisions/dec-001-use-bun.md")
	require.NoError(t, err)
	require.Contains(t, out, "semantic/decisions/dec-001-use-bun.md")
}
