package evidence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndSearch(t *testing.T) {
	s := NewInMemoryStore()

	id1, err := s.Store("s1", "Frankie Knuckles pioneered house music at The Warehouse", map[string]any{"source": "wiki"})
	require.NoError(t, err)
	id2, err := s.Store("s1", "Larry Heard recorded Can You Feel It in 1986", nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	// Case-insensitive substring match.
	results, err := s.Search("s1", "warehouse", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id1, results[0].ID)
	assert.Equal(t, "wiki", results[0].Metadata["source"])

	// Empty query matches everything, newest first.
	results, err = s.Search("s1", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, id2, results[0].ID)

	// Sessions are isolated.
	results, err = s.Search("s2", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimit(t *testing.T) {
	s := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		_, err := s.Store("s1", fmt.Sprintf("note %d", i), nil)
		require.NoError(t, err)
	}

	results, err := s.Search("s1", "note", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "note 4", results[0].Content)
}

func TestDelete(t *testing.T) {
	s := NewInMemoryStore()
	id, err := s.Store("s1", "to be removed", nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete("s1", id))
	assert.Error(t, s.Delete("s1", id))
	assert.Error(t, s.Delete("unknown", id))

	results, err := s.Search("s1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
