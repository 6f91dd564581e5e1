package consolidate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"knowvault/internal/config"
)

func TestConsolidateCreatesFileForDecisionNote(t *testing.T) {
	cfg := config.DefaultConsolidatorConfig()
	plan := Consolidate(cfg, []string{"We decided to use SQLite with FTS5 for full text search instead of an external engine."}, nil)

	require.Len(t, plan.Actions, 1)
	require.Equal(t, ActionCreateFile, plan.Actions[0].Kind)
	require.Equal(t, "decision", plan.Actions[0].Type)
}

func TestConsolidateSkipsDuplicateNote(t *testing.T) {
	cfg := config.DefaultConsolidatorConfig()
	existing := []ExistingEntry{
		{ID: "dec-001", Content: "We decided to use SQLite with FTS5 for full text search instead of an external engine."},
	}
	plan := Consolidate(cfg, []string{"We decided to use SQLite with FTS5 for full text search instead of an external search engine."}, existing)

	require.Len(t, plan.Actions, 1)
	require.Equal(t, ActionSkipDuplicate, plan.Actions[0].Kind)
	require.Equal(t, "dec-001", plan.Actions[0].ExistingID)
}

func TestConsolidateFlagsSupersession(t *testing.T) {
	cfg := config.DefaultConsolidatorConfig()
	existing := []ExistingEntry{
		{ID: "dec-002", Content: "We decided to keep the old embedding cache in memory for speed."},
	}
	note := "This approach replaces the old in memory embedding cache with a persistent disk backed store for reliability."
	plan := Consolidate(cfg, []string{note}, existing)

	require.Len(t, plan.Actions, 1)
	action := plan.Actions[0]
	require.Equal(t, ActionSubsume, action.Kind)
	require.Equal(t, "dec-002", action.ExistingID)
}

func TestConsolidateShortUncategorizedNoteOnlyNormalizesTags(t *testing.T) {
	cfg := config.DefaultConsolidatorConfig()
	plan := Consolidate(cfg, []string{"quick thought about caching"}, nil)

	require.Len(t, plan.Actions, 1)
	require.Equal(t, ActionNormalizeTags, plan.Actions[0].Kind)
}

func TestConsolidateFactCategoryNeverCreatesFile(t *testing.T) {
	cfg := config.DefaultConsolidatorConfig()
	note := "A race condition is defined as two goroutines accessing shared state without synchronization."
	plan := Consolidate(cfg, []string{note}, nil)

	require.Len(t, plan.Actions, 1)
	require.Equal(t, ActionNormalizeTags, plan.Actions[0].Kind)
}

func TestJaccardSimilarity(t *testing.T) {
	a := tokenize("the quick brown fox jumps over the lazy dog")
	b := tokenize("quick brown fox jumps over a lazy dog")
	sim := jaccard(a, b)
	require.Greater(t, sim, 0.5)
}

func TestJaccardEmptySetsAreDissimilar(t *testing.T) {
	require.Equal(t, 0.0, jaccard(map[string]bool{}, map[string]bool{}))
}
