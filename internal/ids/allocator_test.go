package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextStartsAtOne(t *testing.T) {
	a := New(func(prefix string) ([]string, error) { return nil, nil })
	id, err := a.Next("decision")
	require.NoError(t, err)
	require.Equal(t, "dec-001", id)
}

func TestNextSkipsGapsLeftByDeletions(t *testing.T) {
	a := New(func(prefix string) ([]string, error) {
		return []string{"dec-001", "dec-005"}, nil
	})
	id, err := a.Next("decision")
	require.NoError(t, err)
	require.Equal(t, "dec-006", id)
}

func TestNextRejectsUnknownType(t *testing.T) {
	a := New(func(prefix string) ([]string, error) { return nil, nil })
	_, err := a.Next("bogus")
	require.Error(t, err)
}

func TestNextIgnoresMalformedSuffixes(t *testing.T) {
	a := New(func(prefix string) ([]string, error) {
		return []string{"dec-abc", "dec-002"}, nil
	})
	id, err := a.Next("decision")
	require.NoError(t, err)
	require.Equal(t, "dec-003", id)
}
