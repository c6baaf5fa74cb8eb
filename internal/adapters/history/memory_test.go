package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushReplaceAndNavigate(t *testing.T) {
	h := NewMemoryHistory("?page=2", 0)
	assert.Equal(t, "page=2", h.Current())

	h.Push("status=pending")
	h.Replace("status=pending&search=lap")
	assert.Equal(t, 2, h.Len())

	q, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "page=2", q)

	_, ok = h.Back()
	assert.False(t, ok)

	q, ok = h.Forward()
	assert.True(t, ok)
	assert.Equal(t, "status=pending&search=lap", q)

	_, ok = h.Forward()
	assert.False(t, ok)
}

func TestPushDropsForwardEntries(t *testing.T) {
	h := NewMemoryHistory("", 0)
	h.Push("a=1")
	h.Push("a=2")
	h.Back()
	h.Push("a=3")

	_, ok := h.Forward()
	assert.False(t, ok)
	assert.Equal(t, 3, h.Len())
}

func TestLimitEvictsOldest(t *testing.T) {
	h := NewMemoryHistory("a=0", 2)
	h.Push("a=1")
	h.Push("a=2")
	assert.Equal(t, 2, h.Len())

	q, _ := h.Back()
	assert.Equal(t, "a=1", q)
	_, ok := h.Back()
	assert.False(t, ok)
}
