package domain

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MinSearchLength - поиск короче этого (в символах) на сервер не отправляется.
	MinSearchLength = 3
	// DefaultPageSize - размер страницы списка, как в клиенте модерации.
	DefaultPageSize = 10
)

// Префиксы ключей кэша: список объявлений и отдельное объявление.
const (
	ListKeyPrefix = "ads?"
	ItemKeyPrefix = "ad/"
)

// EffectiveSearch возвращает строку поиска, которую можно отправить на сервер.
// Пустая строка отправляется как "без поиска"; 1-2 символа - еще не фильтр.
func EffectiveSearch(raw string) (string, bool) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	if s == "" || utf8.RuneCountInString(s) < MinSearchLength {
		return "", false
	}
	return s, true
}

// RequestDescriptor - каноническое представление запроса списка.
// Два FilterState с одинаковым дескриптором - один и тот же запрос.
type RequestDescriptor struct {
	Page       int
	Limit      int
	Statuses   []Status
	CategoryID *int
	MinPrice   *float64
	MaxPrice   *float64
	Search     *string
	SortBy     SortBy
	SortOrder  SortOrder
}

// BuildDescriptor строит дескриптор из состояния. Функция чистая.
func BuildDescriptor(state FilterState, limit int) RequestDescriptor {
	if limit < 1 {
		limit = DefaultPageSize
	}
	page := state.Page
	if page < 1 {
		page = 1
	}
	sort := state.Sort
	if !sort.IsValid() {
		sort = DefaultSort
	}

	d := RequestDescriptor{
		Page:      page,
		Limit:     limit,
		Statuses:  NormalizeStatuses(state.Statuses),
		MinPrice:  coercePrice(state.MinPrice),
		MaxPrice:  coercePrice(state.MaxPrice),
		SortBy:    sort.By,
		SortOrder: sort.Order,
	}
	if state.CategoryID != nil && *state.CategoryID > 0 {
		v := *state.CategoryID
		d.CategoryID = &v
	}
	if search, ok := EffectiveSearch(state.Search); ok {
		d.Search = &search
	}
	return d
}

// coercePrice повторяет правило клиента: 0, NaN и бесконечность = "не задано".
func coercePrice(v *float64) *float64 {
	if v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	c := *v
	return &c
}

// Query - параметры запроса GET /ads.
func (d RequestDescriptor) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(d.Page))
	q.Set("limit", strconv.Itoa(d.Limit))
	for _, s := range d.Statuses {
		q.Add("status[]", string(s))
	}
	if d.CategoryID != nil {
		q.Set("categoryId", strconv.Itoa(*d.CategoryID))
	}
	if d.MinPrice != nil {
		q.Set("minPrice", FormatNumber(*d.MinPrice))
	}
	if d.MaxPrice != nil {
		q.Set("maxPrice", FormatNumber(*d.MaxPrice))
	}
	if d.Search != nil {
		q.Set("search", *d.Search)
	}
	q.Set("sortBy", string(d.SortBy))
	q.Set("sortOrder", string(d.SortOrder))
	return q
}

// Key - ключ кэша. url.Values.Encode сортирует ключи, статусы уже отсортированы.
func (d RequestDescriptor) Key() string {
	return ListKeyPrefix + d.Query().Encode()
}

// Equal сравнивает дескрипторы по каноническому ключу.
func (d RequestDescriptor) Equal(o RequestDescriptor) bool {
	return d.Key() == o.Key()
}

// IsListKey сообщает, относится ли ключ кэша к списку объявлений.
func IsListKey(key string) bool {
	return strings.HasPrefix(key, ListKeyPrefix)
}

// ItemKey - ключ кэша для одного объявления.
func ItemKey(id int) string {
	return ItemKeyPrefix + strconv.Itoa(id)
}

// ItemKeysMatcher возвращает предикат для ключей перечисленных объявлений.
func ItemKeysMatcher(ids []int) func(string) bool {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ItemKey(id)
	}
	return func(key string) bool {
		return slices.Contains(keys, key)
	}
}

// FormatNumber печатает число без потери точности и без экспоненты.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
