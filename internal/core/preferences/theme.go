package preferences

import (
	"context"
	"fmt"
	"sync"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/port"
)

// ThemeKey - ключ режима темы в хранилище.
const ThemeKey = "themeMode"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeStore - общий для приложения режим темы с подпиской на изменения.
// Безопасен для конкурентного использования.
type ThemeStore struct {
	store port.KeyValueStorePort

	mu        sync.Mutex
	mode      Theme
	loaded    bool
	listeners []func(Theme)
}

func NewThemeStore(store port.KeyValueStorePort) *ThemeStore {
	return &ThemeStore{store: store, mode: ThemeLight}
}

// Mode возвращает текущий режим. Неизвестное сохраненное значение - светлая тема.
func (t *ThemeStore) Mode(ctx context.Context) (Theme, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(ctx); err != nil {
		return t.mode, err
	}
	return t.mode, nil
}

// Set сохраняет режим и оповещает подписчиков.
func (t *ThemeStore) Set(ctx context.Context, mode Theme) error {
	if mode != ThemeLight && mode != ThemeDark {
		return fmt.Errorf("unknown theme mode %q", mode)
	}
	t.mu.Lock()
	if err := t.store.Set(ctx, ThemeKey, string(mode)); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("could not save theme mode: %w", err)
	}
	t.mode = mode
	t.loaded = true
	listeners := append([]func(Theme){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(mode)
	}
	return nil
}

// Toggle переключает светлую и темную тему.
func (t *ThemeStore) Toggle(ctx context.Context) (Theme, error) {
	current, err := t.Mode(ctx)
	if err != nil {
		return current, err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	return next, t.Set(ctx, next)
}

func (t *ThemeStore) Subscribe(fn func(Theme)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

func (t *ThemeStore) loadLocked(ctx context.Context) error {
	if t.loaded {
		return nil
	}
	raw, ok, err := t.store.Get(ctx, ThemeKey)
	if err != nil {
		return fmt.Errorf("could not read theme mode: %w", err)
	}
	t.loaded = true
	switch Theme(raw) {
	case ThemeLight, ThemeDark:
		t.mode = Theme(raw)
	default:
		if ok {
			contextkeys.LoggerFromContext(ctx).Warn("Unknown theme mode in storage, using light", port.Fields{"value": raw})
		}
		t.mode = ThemeLight
	}
	return nil
}
