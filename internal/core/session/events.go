package session

import (
	"context"

	"moderation-console/internal/core/debounce"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/querycache"
	"moderation-console/internal/core/urlsync"
	"moderation-console/internal/core/watcher"
)

// onInputCommitted получает значение поля после паузы в наборе.
// Фиксация идет через Replace, чтобы ввод не засорял историю.
func (s *Session) onInputCommitted(ch debounce.Channel, raw string) {
	state := s.sync.State()
	next := state
	switch ch {
	case debounce.ChannelSearch:
		if raw == state.Search {
			return
		}
		next = state.WithSearch(raw)
	case debounce.ChannelMinPrice:
		v := urlsync.ParseNumberInput(raw)
		if sameNumber(v, state.MinPrice) {
			return
		}
		next = state.WithMinPrice(v)
	case debounce.ChannelMaxPrice:
		v := urlsync.ParseNumberInput(raw)
		if sameNumber(v, state.MaxPrice) {
			return
		}
		next = state.WithMaxPrice(v)
	}
	s.logger.Debug("Input committed", port.Fields{"channel": string(ch), "value": raw})
	s.sync.Commit(next, urlsync.Replace)
}

func sameNumber(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// onStateChanged вызывается синхронно при каждой смене зафиксированного состояния.
func (s *Session) onStateChanged(prev, next domain.FilterState) {
	s.logger.Debug("Filter state committed", port.Fields{"query": urlsync.EncodeString(next)})
	s.refresh()
}

// refresh приводит наблюдаемый ключ кэша в соответствие с состоянием.
func (s *Session) refresh() {
	state := s.sync.State()
	if !state.IsDefaultView() {
		s.watcher.Pause()
	}

	d := domain.BuildDescriptor(state, s.cfg.PageSize)
	key := d.Key()
	if key != s.committedKey {
		if s.committedKey != "" {
			s.pages.Unwatch(s.committedKey)
		}
		s.committedKey = key
		s.pages.Watch(key, s.listFetcher(d))
	}
	if page, _, ok := s.pages.Get(key); ok {
		if s.displayedKey != key {
			s.display(key, page)
		} else if state.IsDefaultView() {
			// вернулись на первую страницу до ответа на отфильтрованный запрос:
			// страница уже на экране, но опрос нужно взвести заново
			s.watcher.ObserveFirstPage(page)
		}
	}
	s.publish()
}

func (s *Session) listFetcher(d domain.RequestDescriptor) querycache.Fetcher[domain.AdsPage] {
	list := s.deps.ListAds
	return func(ctx context.Context) (domain.AdsPage, error) {
		return list.Execute(s.requestContext(ctx), d)
	}
}

// onPageLoaded получает результат загрузки страницы. Ответ для ключа, который
// уже не совпадает с зафиксированным, остается в кэше, но не показывается.
func (s *Session) onPageLoaded(res querycache.Result[domain.AdsPage]) {
	if res.Key != s.committedKey {
		s.logger.Debug("Stale page response ignored", port.Fields{"key": res.Key})
		return
	}
	if res.Err != nil {
		s.lastErr = res.Err
		s.logger.Warn("Failed to load ads page", port.Fields{"key": res.Key, "error": res.Err.Error()})
		s.notify("error", "Не удалось загрузить объявления")
		s.publish()
		return
	}
	page := res.Value
	page.FetchedAt = res.FetchedAt
	s.display(res.Key, page)
	s.publish()
}

func (s *Session) display(key string, page domain.AdsPage) {
	s.current = page
	s.hasPage = true
	s.displayedKey = key
	s.lastErr = nil
	if s.sync.State().IsDefaultView() {
		s.watcher.ObserveFirstPage(page)
	}
}

func (s *Session) onWatcherChanged(snap watcher.Snapshot) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(s.ctx, port.SessionEvent{
			Type: port.EventNewItems,
			Data: NewItemsEvent{
				Count:       snap.Count,
				State:       snap.State.String(),
				ShowLoadNew: snap.Count > 0 && s.sync.State().IsDefaultView(),
			},
		})
	}
	s.publish()
}

// NewItemsEvent - данные события new_items.
type NewItemsEvent struct {
	Count       int    `json:"count"`
	State       string `json:"state"`
	ShowLoadNew bool   `json:"showLoadNew"`
}

// resyncInputs переписывает буферы полей ввода из зафиксированного состояния
// после пресета, сброса или навигации по истории.
func (s *Session) resyncInputs() {
	state := s.sync.State()
	values := map[debounce.Channel]string{debounce.ChannelSearch: state.Search}
	if state.MinPrice != nil {
		values[debounce.ChannelMinPrice] = domain.FormatNumber(*state.MinPrice)
	}
	if state.MaxPrice != nil {
		values[debounce.ChannelMaxPrice] = domain.FormatNumber(*state.MaxPrice)
	}
	s.inputs.Reset(values)
}

// publish рассылает снимок подписчикам. Подписчики вызываются в цикле событий
// и не должны синхронно вызывать методы сессии.
func (s *Session) publish() {
	if len(s.subscribers) == 0 && s.deps.Notifier == nil {
		return
	}
	v := s.view()
	for _, fn := range s.subscribers {
		fn(v)
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(s.ctx, port.SessionEvent{Type: port.EventView, Data: v})
	}
}
