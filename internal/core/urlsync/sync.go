package urlsync

import (
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
)

// Mode - способ записи в историю.
type Mode int

const (
	// Replace переписывает текущую запись: промежуточные фиксации ввода
	// не засоряют навигацию назад/вперед.
	Replace Mode = iota
	// Push создает новую запись для осознанной навигации (статус, страница, пресет).
	Push
)

func (m Mode) String() string {
	if m == Push {
		return "push"
	}
	return "replace"
}

// Listener получает предыдущее и новое зафиксированное состояние.
type Listener func(prev, next domain.FilterState)

// Sync - единственный владелец зафиксированного FilterState.
// Не потокобезопасен, используется из цикла событий сессии.
type Sync struct {
	history   port.HistoryPort
	state     domain.FilterState
	listeners []Listener
}

// NewSync восстанавливает состояние из текущей записи истории.
func NewSync(history port.HistoryPort) *Sync {
	return &Sync{
		history: history,
		state:   Parse(history.Current()),
	}
}

func (s *Sync) State() domain.FilterState {
	return s.state
}

// Query - каноническая строка запроса текущего состояния.
func (s *Sync) Query() string {
	return EncodeString(s.state)
}

func (s *Sync) Subscribe(fn Listener) {
	s.listeners = append(s.listeners, fn)
}

// Commit фиксирует новое состояние и записывает его в историю.
// Равное текущему состояние ничего не меняет и возвращает false.
func (s *Sync) Commit(next domain.FilterState, mode Mode) bool {
	if next.Equal(s.state) {
		return false
	}
	query := EncodeString(next)
	if mode == Push {
		s.history.Push(query)
	} else {
		s.history.Replace(query)
	}
	s.apply(next)
	return true
}

// Navigate применяет внешнюю ссылку целиком: параметры, которых нет в query,
// сбрасываются, а не сохраняются из прежнего состояния.
func (s *Sync) Navigate(query string) bool {
	return s.Commit(Parse(query), Push)
}

// Back переходит к предыдущей записи истории.
func (s *Sync) Back() bool {
	query, ok := s.history.Back()
	if !ok {
		return false
	}
	s.applyExternal(query)
	return true
}

// Forward переходит к следующей записи истории.
func (s *Sync) Forward() bool {
	query, ok := s.history.Forward()
	if !ok {
		return false
	}
	s.applyExternal(query)
	return true
}

func (s *Sync) applyExternal(query string) {
	next := Parse(query)
	if next.Equal(s.state) {
		return
	}
	s.apply(next)
}

func (s *Sync) apply(next domain.FilterState) {
	prev := s.state
	s.state = next
	for _, fn := range s.listeners {
		fn(prev, next)
	}
}
