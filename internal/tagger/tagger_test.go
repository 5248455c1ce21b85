package tagger

import (
	"testing"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagConfidence(tags []domain.Tag, text string) (float64, bool) {
	for _, t := range tags {
		if t.Text == text {
			return t.Confidence, true
		}
	}
	return 0, false
}

func TestGenerate(t *testing.T) {
	tg := New()

	t.Run("combines strategies with fixed confidences", func(t *testing.T) {
		tags := tg.Generate("Working on python.py implementation v2.1 with data-model", 5)

		conf, ok := tagConfidence(tags, "python_py")
		require.True(t, ok, "filename tag missing")
		assert.Equal(t, filenameConfidence, conf)

		conf, ok = tagConfidence(tags, "v2_1")
		require.True(t, ok, "version tag missing")
		assert.Equal(t, versionConfidence, conf)

		conf, ok = tagConfidence(tags, "data_model")
		require.True(t, ok, "compound tag missing")
		assert.Equal(t, compoundConfidence, conf)
	})

	t.Run("orders by descending confidence and truncates", func(t *testing.T) {
		tags := tg.Generate("Working on python.py implementation v2.1 with data-model", 3)

		require.Len(t, tags, 3)
		for i := 1; i < len(tags); i++ {
			assert.GreaterOrEqual(t, tags[i-1].Confidence, tags[i].Confidence)
		}
		// vocabulary hits outrank token-shape tags
		assert.Equal(t, patternConfidence, tags[0].Confidence)
	})

	t.Run("same tag from multiple strategies keeps max confidence", func(t *testing.T) {
		// "search" matches the vocabulary (0.8) and repeats often enough for
		// the frequency strategy (0.5); the merge must keep 0.8.
		tags := tg.Generate("search search search", 5)

		conf, ok := tagConfidence(tags, "search")
		require.True(t, ok)
		assert.Equal(t, patternConfidence, conf)
	})

	t.Run("frequency tags require repetition", func(t *testing.T) {
		tags := tg.Generate("reconnect reconnect reconnect handshake", 10)

		conf, ok := tagConfidence(tags, "reconnect")
		require.True(t, ok)
		assert.Equal(t, frequencyConfidence, conf)

		_, ok = tagConfidence(tags, "handshake")
		assert.False(t, ok, "single occurrence must not produce a frequency tag")
	})

	t.Run("acronyms are bounded in length and count", func(t *testing.T) {
		tags := tg.Generate("HTTP JSON YAML GRPC TOOLONGACRONYM", 10)

		_, ok := tagConfidence(tags, "http")
		assert.True(t, ok)
		_, ok = tagConfidence(tags, "toolongacronym")
		assert.False(t, ok)

		acronyms := 0
		for _, tag := range tags {
			if tag.Confidence == acronymConfidence {
				acronyms++
			}
		}
		assert.LessOrEqual(t, acronyms, maxAcronymTags)
	})

	t.Run("stop words never become tags", func(t *testing.T) {
		tags := tg.Generate("this this this that that that", 10)

		_, ok := tagConfidence(tags, "this")
		assert.False(t, ok)
		_, ok = tagConfidence(tags, "that")
		assert.False(t, ok)
	})

	t.Run("empty text yields no tags", func(t *testing.T) {
		assert.Empty(t, tg.Generate("", 5))
	})

	t.Run("zero max falls back to default", func(t *testing.T) {
		tags := tg.Generate("Working on python.py implementation v2.1 with data-model plus extra-term and more-words", 0)

		assert.LessOrEqual(t, len(tags), DefaultMaxTags)
	})
}
