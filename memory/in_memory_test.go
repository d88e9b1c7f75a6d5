package memory

import (
	"testing"

	"github.com/hupe1980/isokit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestInMemoryStore_UpsertAndQuery(t *testing.T) {
	s := NewInMemoryStore()

	id, err := s.Upsert("the user prefers dark mode", map[string]any{"source": "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Upsert("deploy runs every friday", nil)
	require.NoError(t, err)

	results, err := s.Query("what mode does the user prefer", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "dark mode")
	assert.Greater(t, results[0].Score, 0.0)
}

func TestInMemoryStore_QueryExcludesZeroScores(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Upsert("completely unrelated content", nil)
	require.NoError(t, err)

	results, err := s.Query("quantum flux capacitor", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInMemoryStore_QueryNonASCII(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Upsert("das Café öffnet um zehn", nil)
	require.NoError(t, err)
	_, err = s.Upsert("会議は月曜日です", nil)
	require.NoError(t, err)

	results, err := s.Query("wann öffnet das Café", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Café")

	results, err = s.Query("会議は月曜日です", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "会議")
}

func TestInMemoryStore_QueryTopK(t *testing.T) {
	s := NewInMemoryStore()

	for _, text := range []string{
		"alpha report",
		"alpha summary",
		"alpha digest",
	} {
		_, err := s.Upsert(text, nil)
		require.NoError(t, err)
	}

	results, err := s.Query("alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInMemoryStore_QueryDeterministicTieBreak(t *testing.T) {
	s := NewInMemoryStore()

	firstID, err := s.Upsert("orange", nil)
	require.NoError(t, err)
	secondID, err := s.Upsert("orange", nil)
	require.NoError(t, err)

	// Equal scores order by insertion, repeatably
	for i := 0; i < 5; i++ {
		results, err := s.Query("orange", 5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, firstID, results[0].ID)
		assert.Equal(t, secondID, results[1].ID)
	}
}

func TestInMemoryStore_MetadataIsolation(t *testing.T) {
	s := NewInMemoryStore()

	meta := map[string]any{"k": "v"}
	_, err := s.Upsert("some text", meta)
	require.NoError(t, err)

	// Mutating the caller's map must not affect the stored copy
	meta["k"] = "changed"

	results, err := s.Query("some text", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v", results[0].Metadata["k"])

	// Mutating the returned map must not affect subsequent queries
	results[0].Metadata["k"] = "changed again"
	results2, err := s.Query("some text", 1)
	require.NoError(t, err)
	assert.Equal(t, "v", results2[0].Metadata["k"])
}
