package session

import (
	"moderation-console/internal/core/debounce"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/watcher"
)

// View - снимок состояния сессии для отрисовки внешним UI.
type View struct {
	State domain.FilterState
	Query string

	// Текст полей ввода, который может опережать зафиксированное состояние.
	SearchInput   string
	MinPriceInput string
	MaxPriceInput string

	Items      []domain.Ad
	Pagination domain.Pagination
	// Loading - данных для показа еще нет.
	Loading bool
	// Refreshing - показываются прежние данные, пока грузятся новые.
	Refreshing  bool
	HasNextPage bool
	Error       string

	Selected          []int
	AllOnPageSelected bool
	Indeterminate     bool

	NewCount     int
	WatcherState watcher.State
	ShowLoadNew  bool
}

// view вызывается только в цикле событий.
func (s *Session) view() View {
	state := s.sync.State()
	inFlight := s.pages.InFlight(s.committedKey)
	stale := s.displayedKey != s.committedKey
	refreshing := s.hasPage && (inFlight || stale)
	snap := s.watcher.Snapshot()

	v := View{
		State:         state,
		Query:         s.sync.Query(),
		SearchInput:   s.inputs.Raw(debounce.ChannelSearch),
		MinPriceInput: s.inputs.Raw(debounce.ChannelMinPrice),
		MaxPriceInput: s.inputs.Raw(debounce.ChannelMaxPrice),
		Loading:       !s.hasPage && inFlight,
		Refreshing:    refreshing,
		Selected:      s.selection.IDs(),
		NewCount:      snap.Count,
		WatcherState:  snap.State,
		ShowLoadNew:   snap.Count > 0 && state.IsDefaultView(),
	}
	if s.hasPage {
		ids := s.current.IDs()
		v.Items = s.current.Items
		v.Pagination = s.current.Pagination
		v.HasNextPage = !refreshing && s.current.Pagination.CurrentPage < s.current.Pagination.TotalPages
		v.AllOnPageSelected = s.selection.IsAllOnPageSelected(ids)
		v.Indeterminate = s.selection.IsIndeterminate(ids)
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	return v
}
