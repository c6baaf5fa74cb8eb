package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Toggle(5))
	assert.True(t, m.Contains(5))
	assert.False(t, m.Toggle(5))
	assert.Zero(t, m.Len())
}

func TestSelectAllOnPageIsIdempotentToggle(t *testing.T) {
	m := NewManager()
	m.Toggle(100) // выбрано на другой странице
	m.Toggle(2)

	page := []int{1, 2, 3}
	m.SelectAllOnPage(page)
	assert.Equal(t, []int{1, 2, 3, 100}, m.IDs())
	assert.True(t, m.IsAllOnPageSelected(page))

	m.SelectAllOnPage(page)
	assert.Equal(t, []int{100}, m.IDs(), "only the page ids are removed")

	m.SelectAllOnPage(page)
	m.SelectAllOnPage(page)
	assert.Equal(t, []int{100}, m.IDs())
}

func TestAllOnPageAndIndeterminate(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsAllOnPageSelected(nil))
	assert.False(t, m.IsIndeterminate(nil))

	page := []int{1, 2}
	m.Toggle(1)
	assert.False(t, m.IsAllOnPageSelected(page))
	assert.True(t, m.IsIndeterminate(page))

	m.Toggle(2)
	assert.True(t, m.IsAllOnPageSelected(page))
	assert.False(t, m.IsIndeterminate(page))

	assert.False(t, m.IsIndeterminate([]int{7, 8}))
}

func TestClear(t *testing.T) {
	m := NewManager()
	m.SelectAllOnPage([]int{4, 5, 6})
	m.Clear()
	assert.Empty(t, m.IDs())
}
