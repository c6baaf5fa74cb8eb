// Package preferences хранит пользовательские настройки вне сессии:
// именованные пресеты фильтров и тему оформления.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/urlsync"
)

// PresetsKey - ключ реестра пресетов в хранилище.
const PresetsKey = "filterPresets"

var ErrEmptyPresetName = errors.New("preset name is required")

// Preset - именованный снимок строки запроса.
type Preset struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// PresetStore хранит все пресеты одной записью: имя -> строка запроса.
// Поврежденный реестр или отдельные записи отбрасываются, а не применяются.
type PresetStore struct {
	store port.KeyValueStorePort
}

func NewPresetStore(store port.KeyValueStorePort) *PresetStore {
	return &PresetStore{store: store}
}

// Save сохраняет состояние под именем, перезаписывая пресет с тем же именем.
func (p *PresetStore) Save(ctx context.Context, name string, state domain.FilterState) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyPresetName
	}
	registry, err := p.read(ctx)
	if err != nil {
		return err
	}
	registry[name] = urlsync.EncodeString(state)
	return p.write(ctx, registry)
}

// List возвращает имена пресетов по алфавиту.
func (p *PresetStore) List(ctx context.Context) ([]string, error) {
	registry, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(registry)), nil
}

// All возвращает пресеты вместе с запросами, отсортированные по имени.
func (p *PresetStore) All(ctx context.Context) ([]Preset, error) {
	registry, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	presets := make([]Preset, 0, len(registry))
	for _, name := range slices.Sorted(maps.Keys(registry)) {
		presets = append(presets, Preset{Name: name, Query: registry[name]})
	}
	return presets, nil
}

// Load возвращает сохраненную строку запроса для атомарного применения.
func (p *PresetStore) Load(ctx context.Context, name string) (string, error) {
	registry, err := p.read(ctx)
	if err != nil {
		return "", err
	}
	query, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return "", fmt.Errorf("preset %q: %w", name, domain.ErrPresetNotFound)
	}
	return query, nil
}

// Delete удаляет один пресет.
func (p *PresetStore) Delete(ctx context.Context, name string) error {
	registry, err := p.read(ctx)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if _, ok := registry[name]; !ok {
		return fmt.Errorf("preset %q: %w", name, domain.ErrPresetNotFound)
	}
	delete(registry, name)
	return p.write(ctx, registry)
}

// ClearAll очищает реестр.
func (p *PresetStore) ClearAll(ctx context.Context) error {
	if err := p.store.Delete(ctx, PresetsKey); err != nil {
		return fmt.Errorf("could not clear presets: %w", err)
	}
	return nil
}

func (p *PresetStore) read(ctx context.Context) (map[string]string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "PresetStore"})

	raw, ok, err := p.store.Get(ctx, PresetsKey)
	if err != nil {
		return nil, fmt.Errorf("could not read presets: %w", err)
	}
	registry := make(map[string]string)
	if !ok || raw == "" {
		return registry, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Warn("Preset registry is malformed, ignoring it", port.Fields{"error": err.Error()})
		return registry, nil
	}
	for name, value := range entries {
		var query string
		if err := json.Unmarshal(value, &query); err != nil {
			logger.Warn("Dropping malformed preset", port.Fields{"preset": name})
			continue
		}
		if _, err := url.ParseQuery(strings.TrimPrefix(query, "?")); err != nil || strings.TrimSpace(name) == "" {
			logger.Warn("Dropping malformed preset", port.Fields{"preset": name})
			continue
		}
		registry[name] = strings.TrimPrefix(query, "?")
	}
	return registry, nil
}

func (p *PresetStore) write(ctx context.Context, registry map[string]string) error {
	data, err := json.Marshal(registry)
	if err != nil {
		return fmt.Errorf("could not encode presets: %w", err)
	}
	if err := p.store.Set(ctx, PresetsKey, string(data)); err != nil {
		return fmt.Errorf("could not save presets: %w", err)
	}
	return nil
}
