package reconcile

import (
	"testing"

	"worklog/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRemap(t *testing.T) {
	idx := newIndex([]models.LogRecord{
		{ID: "rec1", Content: "a"},
		{ID: "new-1700000000000", Content: "b"},
		{ID: "rec3", Content: "c"},
	})

	require.NoError(t, idx.remap("new-1700000000000", "rec123"))

	_, ok := idx.get("new-1700000000000")
	assert.False(t, ok)
	r, ok := idx.get("rec123")
	require.True(t, ok)
	assert.Equal(t, "b", r.Content)
	assert.Equal(t, "rec123", r.ID)
	assert.Equal(t, []string{"rec1", "rec123", "rec3"}, idx.ids())
}

func TestIndexRemapErrors(t *testing.T) {
	idx := newIndex([]models.LogRecord{{ID: "rec1"}, {ID: "new-1"}})

	assert.ErrorIs(t, idx.remap("new-1", "rec1"), ErrDuplicateID)
	assert.Error(t, idx.remap("missing", "rec9"))
	assert.Equal(t, []string{"rec1", "new-1"}, idx.ids())
}

func TestIndexPutAndRemove(t *testing.T) {
	idx := newIndex(nil)
	idx.put(models.LogRecord{ID: "a", Content: "1"})
	idx.put(models.LogRecord{ID: "b", Content: "2"})
	idx.put(models.LogRecord{ID: "a", Content: "3"})

	assert.Equal(t, 2, idx.len())
	assert.Equal(t, "3", idx.records()[0].Content)

	idx.remove("a")
	idx.remove("zzz")
	assert.Equal(t, []string{"b"}, idx.ids())
}
