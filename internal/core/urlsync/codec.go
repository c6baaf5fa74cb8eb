// Package urlsync связывает FilterState со строкой запроса, которой можно поделиться.
package urlsync

import (
	"math"
	"net/url"
	"strconv"

	"moderation-console/internal/core/domain"
)

// Ключи строки запроса.
const (
	KeyPage     = "page"
	KeySearch   = "search"
	KeyMinPrice = "minPrice"
	KeyMaxPrice = "maxPrice"
	KeyCategory = "category"
	KeyStatus   = "status"
	KeySort     = "sort"
)

// Encode записывает состояние в параметры URL. Значения по умолчанию опускаются,
// статусы пишутся повторяющимся ключом в каноническом порядке.
func Encode(s domain.FilterState) url.Values {
	q := url.Values{}
	if s.Page > 1 {
		q.Set(KeyPage, strconv.Itoa(s.Page))
	}
	if s.Search != "" {
		q.Set(KeySearch, s.Search)
	}
	if s.MinPrice != nil {
		q.Set(KeyMinPrice, domain.FormatNumber(*s.MinPrice))
	}
	if s.MaxPrice != nil {
		q.Set(KeyMaxPrice, domain.FormatNumber(*s.MaxPrice))
	}
	if s.CategoryID != nil {
		q.Set(KeyCategory, strconv.Itoa(*s.CategoryID))
	}
	for _, st := range domain.NormalizeStatuses(s.Statuses) {
		q.Add(KeyStatus, string(st))
	}
	if s.Sort.IsValid() && s.Sort != domain.DefaultSort {
		q.Set(KeySort, s.Sort.String())
	}
	return q
}

// EncodeString - Encode в виде строки без ведущего "?".
func EncodeString(s domain.FilterState) string {
	return Encode(s).Encode()
}

// Decode читает состояние из параметров URL и никогда не возвращает ошибку:
// отсутствующие и некорректные значения заменяются значениями по умолчанию.
func Decode(q url.Values) domain.FilterState {
	s := domain.DefaultFilterState()

	if page, err := strconv.Atoi(q.Get(KeyPage)); err == nil && page > 0 {
		s.Page = page
	}
	s.Search = q.Get(KeySearch)
	s.MinPrice = parseNumber(q.Get(KeyMinPrice))
	s.MaxPrice = parseNumber(q.Get(KeyMaxPrice))
	if id, err := strconv.Atoi(q.Get(KeyCategory)); err == nil && id > 0 {
		s.CategoryID = &id
	}

	statuses := make([]domain.Status, 0, len(q[KeyStatus]))
	for _, raw := range q[KeyStatus] {
		statuses = append(statuses, domain.Status(raw))
	}
	s.Statuses = domain.NormalizeStatuses(statuses)

	if raw := q.Get(KeySort); raw != "" {
		s.Sort, _ = domain.ParseSort(raw)
	}
	return s
}

// Parse разбирает строку запроса (с "?" или без). Ошибки разбора отдельных
// пар игнорируются, как и в Decode.
func Parse(query string) domain.FilterState {
	if len(query) > 0 && query[0] == '?' {
		query = query[1:]
	}
	q, _ := url.ParseQuery(query)
	return Decode(q)
}

// ParseNumberInput разбирает текст из поля цены. Пустой или нечисловой ввод - nil.
func ParseNumberInput(raw string) *float64 {
	return parseNumber(raw)
}

func parseNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
