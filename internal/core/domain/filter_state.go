package domain

import (
	"slices"
	"strings"
)

type SortBy string

const (
	SortByPriority  SortBy = "priority"
	SortByPrice     SortBy = "price"
	SortByCreatedAt SortBy = "createdAt"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort - поле и направление сортировки. В URL хранится одним токеном "поле_направление".
type Sort struct {
	By    SortBy
	Order SortOrder
}

// DefaultSort совпадает с сортировкой сервера по умолчанию.
var DefaultSort = Sort{By: SortByCreatedAt, Order: SortDesc}

// String возвращает токен вида "createdAt_desc".
func (s Sort) String() string {
	return string(s.By) + "_" + string(s.Order)
}

// ParseSort разбирает токен "поле_направление". Некорректный токен -> ok == false.
func ParseSort(token string) (Sort, bool) {
	by, order, found := strings.Cut(token, "_")
	if !found {
		return DefaultSort, false
	}
	s := Sort{By: SortBy(by), Order: SortOrder(order)}
	if !s.IsValid() {
		return DefaultSort, false
	}
	return s, true
}

func (s Sort) IsValid() bool {
	switch s.By {
	case SortByPriority, SortByPrice, SortByCreatedAt:
	default:
		return false
	}
	return s.Order == SortAsc || s.Order == SortDesc
}

// FilterState - зафиксированный набор параметров фильтрации, сортировки и пагинации.
// Значение неизменяемое: каждый сеттер возвращает новую копию.
// Любое изменение, кроме страницы, сбрасывает Page в 1.
type FilterState struct {
	Search     string
	Statuses   []Status // отсортированы, без повторов
	CategoryID *int
	MinPrice   *float64
	MaxPrice   *float64
	Sort       Sort
	Page       int
}

// DefaultFilterState - состояние "без фильтров", первая страница.
func DefaultFilterState() FilterState {
	return FilterState{Sort: DefaultSort, Page: 1}
}

// NormalizeStatuses превращает список в множество: только известные статусы,
// без повторов, в стабильном порядке.
func NormalizeStatuses(in []Status) []Status {
	if len(in) == 0 {
		return nil
	}
	out := make([]Status, 0, len(in))
	for _, s := range in {
		if s.IsValid() && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

func (s FilterState) clone() FilterState {
	c := s
	c.Statuses = slices.Clone(s.Statuses)
	if s.CategoryID != nil {
		v := *s.CategoryID
		c.CategoryID = &v
	}
	if s.MinPrice != nil {
		v := *s.MinPrice
		c.MinPrice = &v
	}
	if s.MaxPrice != nil {
		v := *s.MaxPrice
		c.MaxPrice = &v
	}
	return c
}

func (s FilterState) WithSearch(search string) FilterState {
	c := s.clone()
	c.Search = search
	c.Page = 1
	return c
}

func (s FilterState) WithStatuses(statuses []Status) FilterState {
	c := s.clone()
	c.Statuses = NormalizeStatuses(statuses)
	c.Page = 1
	return c
}

func (s FilterState) WithCategory(categoryID *int) FilterState {
	c := s.clone()
	c.CategoryID = copyInt(categoryID)
	c.Page = 1
	return c
}

func (s FilterState) WithMinPrice(v *float64) FilterState {
	c := s.clone()
	c.MinPrice = copyFloat(v)
	c.Page = 1
	return c
}

func (s FilterState) WithMaxPrice(v *float64) FilterState {
	c := s.clone()
	c.MaxPrice = copyFloat(v)
	c.Page = 1
	return c
}

func (s FilterState) WithSort(sort Sort) FilterState {
	if !sort.IsValid() {
		sort = DefaultSort
	}
	c := s.clone()
	c.Sort = sort
	c.Page = 1
	return c
}

// WithPage - единственный сеттер, который не сбрасывает страницу.
func (s FilterState) WithPage(page int) FilterState {
	if page < 1 {
		page = 1
	}
	c := s.clone()
	c.Page = page
	return c
}

// HasActiveFilters сообщает, сужает ли состояние выборку.
// Поиск короче минимальной длины фильтром не считается.
func (s FilterState) HasActiveFilters() bool {
	_, hasSearch := EffectiveSearch(s.Search)
	return hasSearch ||
		len(s.Statuses) > 0 ||
		s.CategoryID != nil ||
		s.MinPrice != nil ||
		s.MaxPrice != nil
}

// IsDefaultView - первая страница без фильтров с сортировкой по умолчанию.
// Только в этом виде имеет смысл следить за новыми объявлениями.
func (s FilterState) IsDefaultView() bool {
	return s.Page == 1 && s.Sort == DefaultSort && !s.HasActiveFilters()
}

// Equal сравнивает состояния по значению.
func (s FilterState) Equal(o FilterState) bool {
	return s.Search == o.Search &&
		slices.Equal(NormalizeStatuses(s.Statuses), NormalizeStatuses(o.Statuses)) &&
		equalPtr(s.CategoryID, o.CategoryID) &&
		equalPtr(s.MinPrice, o.MinPrice) &&
		equalPtr(s.MaxPrice, o.MaxPrice) &&
		s.Sort == o.Sort &&
		s.Page == o.Page
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
