package session

import (
	"context"
	"fmt"

	"moderation-console/internal/core/debounce"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/urlsync"
)

// View возвращает текущий снимок состояния.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func() { v = s.view() })
	return v, err
}

// Subscribe регистрирует получателя снимков. fn вызывается в цикле событий
// и не должен синхронно вызывать методы сессии. Возвращает функцию отписки.
func (s *Session) Subscribe(ctx context.Context, fn func(View)) (func(), error) {
	var id int
	err := s.do(ctx, func() {
		s.nextSubID++
		id = s.nextSubID
		s.subscribers[id] = fn
	})
	if err != nil {
		return nil, err
	}
	return func() {
		s.post(func() { delete(s.subscribers, id) })
	}, nil
}

// --- Поля ввода с задержкой фиксации ---

func (s *Session) SetSearchInput(ctx context.Context, raw string) error {
	return s.input(ctx, debounce.ChannelSearch, raw)
}

func (s *Session) SetMinPriceInput(ctx context.Context, raw string) error {
	return s.input(ctx, debounce.ChannelMinPrice, raw)
}

func (s *Session) SetMaxPriceInput(ctx context.Context, raw string) error {
	return s.input(ctx, debounce.ChannelMaxPrice, raw)
}

func (s *Session) input(ctx context.Context, ch debounce.Channel, raw string) error {
	return s.do(ctx, func() {
		s.inputs.Update(ch, raw)
		s.publish()
	})
}

// FlushInputs немедленно фиксирует все ожидающие поля ввода (Enter в поле поиска).
func (s *Session) FlushInputs(ctx context.Context) error {
	return s.do(ctx, func() {
		for _, ch := range debounce.Channels {
			s.inputs.Flush(ch)
		}
	})
}

// --- Осознанная навигация: каждое изменение - отдельная запись истории ---

func (s *Session) SetStatuses(ctx context.Context, statuses []domain.Status) error {
	return s.commit(ctx, func(st domain.FilterState) domain.FilterState { return st.WithStatuses(statuses) })
}

func (s *Session) SetCategory(ctx context.Context, categoryID *int) error {
	return s.commit(ctx, func(st domain.FilterState) domain.FilterState { return st.WithCategory(categoryID) })
}

func (s *Session) SetSort(ctx context.Context, sort domain.Sort) error {
	return s.commit(ctx, func(st domain.FilterState) domain.FilterState { return st.WithSort(sort) })
}

func (s *Session) SetPage(ctx context.Context, page int) error {
	return s.commit(ctx, func(st domain.FilterState) domain.FilterState { return st.WithPage(page) })
}

func (s *Session) commit(ctx context.Context, change func(domain.FilterState) domain.FilterState) error {
	return s.do(ctx, func() {
		s.sync.Commit(change(s.sync.State()), urlsync.Push)
	})
}

// ResetFilters возвращает вид по умолчанию и очищает поля ввода.
func (s *Session) ResetFilters(ctx context.Context) error {
	return s.do(ctx, func() {
		s.sync.Commit(domain.DefaultFilterState(), urlsync.Push)
		s.resyncInputs()
		s.publish()
	})
}

// Navigate применяет строку запроса целиком (ссылка, которой поделились).
func (s *Session) Navigate(ctx context.Context, query string) error {
	return s.do(ctx, func() {
		s.sync.Navigate(query)
		s.resyncInputs()
		s.publish()
	})
}

// Back возвращает false, если назад идти некуда.
func (s *Session) Back(ctx context.Context) (bool, error) {
	return s.history(ctx, s.sync.Back)
}

func (s *Session) Forward(ctx context.Context) (bool, error) {
	return s.history(ctx, s.sync.Forward)
}

func (s *Session) history(ctx context.Context, move func() bool) (bool, error) {
	var moved bool
	err := s.do(ctx, func() {
		moved = move()
		if moved {
			s.resyncInputs()
			s.publish()
		}
	})
	return moved, err
}

// --- Выбор ---

func (s *Session) Toggle(ctx context.Context, id int) error {
	return s.do(ctx, func() {
		s.selection.Toggle(id)
		s.publish()
	})
}

// SelectAllOnPage выбирает или снимает выбор с объявлений текущей страницы.
func (s *Session) SelectAllOnPage(ctx context.Context) error {
	return s.do(ctx, func() {
		if !s.hasPage {
			return
		}
		s.selection.SelectAllOnPage(s.current.IDs())
		s.publish()
	})
}

func (s *Session) ClearSelection(ctx context.Context) error {
	return s.do(ctx, func() {
		s.selection.Clear()
		s.publish()
	})
}

// --- Массовые действия ---

func (s *Session) BulkApprove(ctx context.Context) (domain.BulkResult, error) {
	return s.bulk(ctx, domain.ActionApprove, domain.Decision{})
}

func (s *Session) BulkReject(ctx context.Context, reason, comment string) (domain.BulkResult, error) {
	return s.bulk(ctx, domain.ActionReject, domain.Decision{Reason: reason, Comment: comment})
}

func (s *Session) BulkRequestChanges(ctx context.Context, reason, comment string) (domain.BulkResult, error) {
	return s.bulk(ctx, domain.ActionRequestChanges, domain.Decision{Reason: reason, Comment: comment})
}

// bulk снимает выбор и известные статусы в цикле, выполняет запросы вне цикла
// и затем применяет итог: инвалидирует кэш (если запросы были) и очищает выбор.
func (s *Session) bulk(ctx context.Context, action domain.ModerationAction, decision domain.Decision) (domain.BulkResult, error) {
	var (
		ids   []int
		known map[int]domain.Status
	)
	if err := s.do(ctx, func() {
		ids = s.selection.IDs()
		known = s.current.StatusByID()
	}); err != nil {
		return domain.BulkResult{}, err
	}

	result, err := s.deps.Bulk.Execute(s.requestContext(ctx), action, ids, known, decision)
	if err != nil {
		return result, err
	}

	// запросы уже ушли: кэш и выбор приводятся в порядок, даже если клиент отключился
	if err := s.do(context.WithoutCancel(ctx), func() {
		if len(result.Eligible) > 0 {
			s.pages.Invalidate(domain.IsListKey)
			s.ads.Invalidate(domain.ItemKeysMatcher(result.Eligible))
		}
		s.selection.Clear()
		s.notify(bulkNotification(result))
		s.publish()
	}); err != nil {
		return result, err
	}
	return result, nil
}

func bulkNotification(r domain.BulkResult) (string, string) {
	switch r.Outcome() {
	case domain.OutcomeNothingEligible:
		return "info", "Нет объявлений для изменения"
	case domain.OutcomeSucceeded:
		return "info", fmt.Sprintf("Обработано объявлений: %d", len(r.Succeeded))
	case domain.OutcomePartiallyFailed:
		return "warning", fmt.Sprintf("Обработано %d из %d, ошибок: %d", len(r.Succeeded), len(r.Eligible), len(r.Failed))
	default:
		return "error", "Не удалось выполнить действие"
	}
}

// --- Новые объявления ---

// LoadNew сбрасывает кэш списка, обнуляет счетчик и приостанавливает опрос
// до следующей загрузки первой страницы.
func (s *Session) LoadNew(ctx context.Context) error {
	return s.do(ctx, func() {
		s.watcher.LoadNew()
		s.pages.Invalidate(domain.IsListKey)
		s.publish()
	})
}

// --- Пресеты ---

func (s *Session) SavePreset(ctx context.Context, name string) error {
	var state domain.FilterState
	if err := s.do(ctx, func() { state = s.sync.State() }); err != nil {
		return err
	}
	return s.deps.Presets.Save(s.requestContext(ctx), name, state)
}

// LoadPreset заменяет все состояние URL сохраненным, без слияния по полям.
func (s *Session) LoadPreset(ctx context.Context, name string) error {
	query, err := s.deps.Presets.Load(s.requestContext(ctx), name)
	if err != nil {
		return err
	}
	return s.Navigate(ctx, query)
}

func (s *Session) ListPresets(ctx context.Context) ([]string, error) {
	return s.deps.Presets.List(s.requestContext(ctx))
}

func (s *Session) DeletePreset(ctx context.Context, name string) error {
	return s.deps.Presets.Delete(s.requestContext(ctx), name)
}

func (s *Session) ClearPresets(ctx context.Context) error {
	return s.deps.Presets.ClearAll(s.requestContext(ctx))
}

// --- Одно объявление ---

// AdDetails возвращает объявление из кэша или загружает его. Ответ,
// полученный до инвалидации (объявление успели изменить), не кэшируется,
// и загрузка повторяется.
func (s *Session) AdDetails(ctx context.Context, id int) (domain.Ad, error) {
	key := domain.ItemKey(id)
	for attempt := 0; ; attempt++ {
		var (
			ad     domain.Ad
			cached bool
			stamp  uint64
		)
		if err := s.do(ctx, func() {
			ad, _, cached = s.ads.Get(key)
			stamp = s.ads.Stamp()
		}); err != nil {
			return domain.Ad{}, err
		}
		if cached {
			return ad, nil
		}

		ad, err := s.deps.AdDetails.Execute(s.requestContext(ctx), id)
		if err != nil {
			return domain.Ad{}, err
		}
		var fresh bool
		if err := s.do(ctx, func() { fresh = s.ads.PutIfFresh(key, ad, stamp) }); err != nil {
			return domain.Ad{}, err
		}
		if fresh || attempt >= maxDetailAttempts-1 {
			return ad, nil
		}
		s.logger.Debug("Ad details outdated by moderation, reloading", port.Fields{"ad_id": id})
	}
}

// maxDetailAttempts ограничивает повторные загрузки при постоянных инвалидациях.
const maxDetailAttempts = 3

func (s *Session) ApproveAd(ctx context.Context, id int) error {
	return s.moderate(ctx, id, domain.ActionApprove, domain.Decision{})
}

func (s *Session) RejectAd(ctx context.Context, id int, reason, comment string) error {
	return s.moderate(ctx, id, domain.ActionReject, domain.Decision{Reason: reason, Comment: comment})
}

func (s *Session) RequestChangesAd(ctx context.Context, id int, reason, comment string) error {
	return s.moderate(ctx, id, domain.ActionRequestChanges, domain.Decision{Reason: reason, Comment: comment})
}

func (s *Session) moderate(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error {
	err := s.deps.Moderate.Execute(s.requestContext(ctx), id, action, decision)
	if err != nil {
		s.post(func() { s.notify("error", fmt.Sprintf("Не удалось изменить объявление %d", id)) })
		return err
	}
	return s.do(context.WithoutCancel(ctx), func() {
		s.pages.Invalidate(domain.IsListKey)
		s.ads.Invalidate(domain.ItemKeysMatcher([]int{id}))
		s.logger.Info("Ad moderated", port.Fields{"ad_id": id, "action": string(action)})
		s.publish()
	})
}
