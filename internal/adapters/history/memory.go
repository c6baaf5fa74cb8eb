// Package history хранит историю навигации сессии в памяти процесса.
package history

import (
	"strings"

	"moderation-console/internal/core/port"
)

// DefaultLimit - сколько записей хранится до вытеснения самых старых.
const DefaultLimit = 100

// MemoryHistory - стек записей с курсором, как в адресной строке браузера.
type MemoryHistory struct {
	entries []string
	cursor  int
	limit   int
}

var _ port.HistoryPort = (*MemoryHistory)(nil)

// NewMemoryHistory создает историю с одной начальной записью.
func NewMemoryHistory(initial string, limit int) *MemoryHistory {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &MemoryHistory{
		entries: []string{strings.TrimPrefix(initial, "?")},
		limit:   limit,
	}
}

func (h *MemoryHistory) Current() string {
	return h.entries[h.cursor]
}

func (h *MemoryHistory) Push(query string) {
	h.entries = append(h.entries[:h.cursor+1], query)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	h.cursor = len(h.entries) - 1
}

func (h *MemoryHistory) Replace(query string) {
	h.entries[h.cursor] = query
}

func (h *MemoryHistory) Back() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

func (h *MemoryHistory) Forward() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Len - число записей в истории.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}
