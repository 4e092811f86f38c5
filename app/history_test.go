package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryPushEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Push(HistoryEntry{ID: id})
	}

	require.Equal(t, 3, h.Len())
	ids := []string{}
	for _, e := range h.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids)

	_, ok := h.Find("a")
	assert.False(t, ok)
	e, ok := h.Find("c")
	assert.True(t, ok)
	assert.Equal(t, "c", e.ID)
}

func TestHistoryEntriesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Push(HistoryEntry{ID: "a", Text: "orig"})

	out := h.Entries()
	out[0].Text = "mutated"
	assert.Equal(t, "orig", h.Entries()[0].Text)
}

func TestHistoryMinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Push(HistoryEntry{ID: "a"})
	h.Push(HistoryEntry{ID: "b"})
	require.Equal(t, 1, h.Len())
	assert.Equal(t, "b", h.Entries()[0].ID)
}
