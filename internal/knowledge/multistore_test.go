package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiStoreCreateGoesToProject(t *testing.T) {
	project := newTestStore(t)
	global := newTestStore(t)
	ms := NewMultiStore(project, global)

	result, err := ms.Create(context.Background(), CreateInput{Title: "Project note", Type: "note", Content: "lives in the project store"})
	require.NoError(t, err)

	_, err = project.Read(result.ID)
	require.NoError(t, err)
	_, err = global.Read(result.ID)
	require.Error(t, err)
}

func TestMultiStoreSearchMergesBothStoresWithSource(t *testing.T) {
	project := newTestStore(t)
	global := newTestStore(t)
	ms := NewMultiStore(project, global)

	_, err := project.Create(context.Background(), CreateInput{Title: "Project finding", Type: "note", Content: "shared vocabulary about rate limiting"})
	require.NoError(t, err)
	_, err = global.Create(context.Background(), CreateInput{Title: "Global finding", Type: "note", Content: "shared vocabulary about rate limiting"})
	require.NoError(t, err)

	results, total, err := ms.Search(context.Background(), "rate limiting", SearchOptions{Limit: 10, MinScore: 0.01})
	require.NoError(t, err)
	require.Equal(t, len(results), total)

	var sawProject, sawGlobal bool
	for _, r := range results {
		switch r.StoreSource {
		case string(SourceProject):
			sawProject = true
		case string(SourceGlobal):
			sawGlobal = true
		}
	}
	require.True(t, sawProject)
	require.True(t, sawGlobal)
}

func TestMultiStoreReadFallsBackToGlobal(t *testing.T) {
	project := newTestStore(t)
	global := newTestStore(t)
	ms := NewMultiStore(project, global)

	result, err := global.Create(context.Background(), CreateInput{Title: "Only global", Type: "note", Content: "not in project store"})
	require.NoError(t, err)

	entry, err := ms.Read(result.ID)
	require.NoError(t, err)
	require.Equal(t, "Only global", entry.Title)
}

func TestMultiStoreWithNilGlobalBehavesLikeProjectAlone(t *testing.T) {
	project := newTestStore(t)
	ms := NewMultiStore(project, nil)

	result, err := ms.Create(context.Background(), CreateInput{Title: "Solo", Type: "note", Content: "no global store configured"})
	require.NoError(t, err)

	results, _, err := ms.Search(context.Background(), "configured", SearchOptions{Limit: 5, MinScore: 0.01})
	require.NoError(t, err)

	var found bool
	for _, r := range results {
		if r.ID == result.ID {
			found = true
		}
	}
	require.True(t, found)
}
