// Package selection хранит выбранные объявления независимо от текущей страницы.
package selection

import (
	"maps"
	"slices"
)

// Manager - множество выбранных идентификаторов на время сессии.
// Смена страницы или фильтров выбор не сбрасывает: модератор может собрать
// пакет с нескольких страниц перед массовым действием.
type Manager struct {
	ids map[int]struct{}
}

func NewManager() *Manager {
	return &Manager{ids: make(map[int]struct{})}
}

// Toggle меняет принадлежность id и возвращает новое состояние.
func (m *Manager) Toggle(id int) bool {
	if _, ok := m.ids[id]; ok {
		delete(m.ids, id)
		return false
	}
	m.ids[id] = struct{}{}
	return true
}

// SelectAllOnPage добавляет всю страницу, если выбрана не вся,
// иначе снимает выбор ровно с этой страницы.
func (m *Manager) SelectAllOnPage(visible []int) {
	if m.IsAllOnPageSelected(visible) {
		for _, id := range visible {
			delete(m.ids, id)
		}
		return
	}
	for _, id := range visible {
		m.ids[id] = struct{}{}
	}
}

// IsAllOnPageSelected - страница непуста и выбрана целиком.
func (m *Manager) IsAllOnPageSelected(visible []int) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if _, ok := m.ids[id]; !ok {
			return false
		}
	}
	return true
}

// IsIndeterminate - на странице выбрано что-то, но не все.
func (m *Manager) IsIndeterminate(visible []int) bool {
	some := slices.ContainsFunc(visible, m.Contains)
	return some && !m.IsAllOnPageSelected(visible)
}

func (m *Manager) Contains(id int) bool {
	_, ok := m.ids[id]
	return ok
}

func (m *Manager) Clear() {
	clear(m.ids)
}

func (m *Manager) Len() int {
	return len(m.ids)
}

// IDs возвращает выбранные идентификаторы по возрастанию.
func (m *Manager) IDs() []int {
	return slices.Sorted(maps.Keys(m.ids))
}
