package vector

import (
	"testing"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.3, -0.2, 0.9}

		score, err := CosineSimilarity(v, v)

		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("opposite vectors score 0", func(t *testing.T) {
		score, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})

		require.NoError(t, err)
		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("orthogonal vectors score 0.5", func(t *testing.T) {
		score, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})

		require.NoError(t, err)
		assert.InDelta(t, 0.5, score, 1e-9)
	})

	t.Run("zero norm yields 0", func(t *testing.T) {
		score, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})

		require.NoError(t, err)
		assert.Zero(t, score)
	})

	t.Run("length mismatch is an error", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})
}

func TestIndex(t *testing.T) {
	t.Run("search ranks by similarity", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("east", []float32{1, 0}))
		require.NoError(t, ix.Upsert("north", []float32{0, 1}))
		require.NoError(t, ix.Upsert("west", []float32{-1, 0}))

		matches, err := ix.Search([]float32{1, 0}, 10, 0)

		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "east", matches[0].ID)
		assert.Equal(t, "north", matches[1].ID)
		assert.Equal(t, "west", matches[2].ID)
	})

	t.Run("threshold filters low scores", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("east", []float32{1, 0}))
		require.NoError(t, ix.Upsert("west", []float32{-1, 0}))

		matches, err := ix.Search([]float32{1, 0}, 10, 0.6)

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "east", matches[0].ID)
	})

	t.Run("k truncates", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("a", []float32{1, 0}))
		require.NoError(t, ix.Upsert("b", []float32{0.9, 0.1}))
		require.NoError(t, ix.Upsert("c", []float32{0, 1}))

		matches, err := ix.Search([]float32{1, 0}, 2, 0)

		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("negative k is rejected", func(t *testing.T) {
		ix := NewIndex(2)

		_, err := ix.Search([]float32{1, 0}, -1, 0)

		assert.ErrorIs(t, err, domain.ErrNegativeK)
	})

	t.Run("zero k returns nothing", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("a", []float32{1, 0}))

		matches, err := ix.Search([]float32{1, 0}, 0, 0)

		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("query dimension mismatch is rejected", func(t *testing.T) {
		ix := NewIndex(2)

		_, err := ix.Search([]float32{1, 0, 0}, 5, 0)

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("upsert replaces in place", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("a", []float32{1, 0}))
		require.NoError(t, ix.Upsert("a", []float32{0, 1}))

		assert.Equal(t, 1, ix.Len())

		matches, err := ix.Search([]float32{0, 1}, 1, 0.9)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].ID)
	})

	t.Run("rebuild replaces content atomically", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("old", []float32{1, 0}))

		err := ix.Rebuild([]Entry{
			{ID: "x", Embedding: []float32{0, 1}},
			{ID: "y", Embedding: []float32{1, 0}},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, ix.Len())

		matches, err := ix.Search([]float32{1, 0}, 10, 0.9)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "y", matches[0].ID)
	})

	t.Run("rebuild with bad entry keeps previous content", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("keep", []float32{1, 0}))

		err := ix.Rebuild([]Entry{{ID: "bad", Embedding: []float32{1}}})

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.Equal(t, 1, ix.Len())
	})

	t.Run("remove drops entries and tolerates unknown ids", func(t *testing.T) {
		ix := NewIndex(2)
		require.NoError(t, ix.Upsert("a", []float32{1, 0}))
		require.NoError(t, ix.Upsert("b", []float32{0, 1}))

		ix.Remove("a")
		ix.Remove("missing")

		assert.Equal(t, 1, ix.Len())
		matches, err := ix.Search([]float32{0, 1}, 10, 0)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "b", matches[0].ID)
	})

	t.Run("stats report size and width", func(t *testing.T) {
		ix := NewIndex(3)
		require.NoError(t, ix.Upsert("a", []float32{1, 0, 0}))

		assert.Equal(t, Stats{Size: 1, Dimensions: 3, Bytes: 12}, ix.Stats())
	})
}
