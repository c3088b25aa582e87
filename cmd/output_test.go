package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

func TestWriteFormat(t *testing.T) {
	v := sample{ID: "rec1", Content: "standup"}

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		ok, err := writeFormat(&buf, "text", v)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, buf.String())
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		ok, err := writeFormat(&buf, "json", v)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"id":"rec1","content":"standup"}`, buf.String())
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		ok, err := writeFormat(&buf, "yaml", v)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.YAMLEq(t, "id: rec1\ncontent: standup\n", buf.String())
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := writeFormat(&bytes.Buffer{}, "xml", v)
		assert.Error(t, err)
	})
}
