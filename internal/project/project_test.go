package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Run("explicit name wins", func(t *testing.T) {
		assert.Equal(t, "billing", Detect("billing", "PROJECT: other"))
	})

	t.Run("header inside the content", func(t *testing.T) {
		content := "STATUS: working\nPROJECT: chat-server\nNEXT: tests"
		assert.Equal(t, "chat-server", Detect("", content))
	})

	t.Run("german header spelling", func(t *testing.T) {
		assert.Equal(t, "abrechnung", Detect("", "PROJEKT: Abrechnung"))
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultName, Detect("", "no project mentioned here"))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "my-project", Normalize("  My Project "))
	assert.Equal(t, "a-b", Normalize("a/b"))
	assert.Equal(t, "x", Normalize("-x-"))
}
