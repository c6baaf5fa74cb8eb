package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestSettersResetPage(t *testing.T) {
	base := DefaultFilterState().WithPage(4)
	require.Equal(t, 4, base.Page)

	changes := map[string]func(FilterState) FilterState{
		"search":   func(s FilterState) FilterState { return s.WithSearch("laptop") },
		"statuses": func(s FilterState) FilterState { return s.WithStatuses([]Status{StatusPending}) },
		"category": func(s FilterState) FilterState { return s.WithCategory(intPtr(2)) },
		"minPrice": func(s FilterState) FilterState { return s.WithMinPrice(floatPtr(100)) },
		"maxPrice": func(s FilterState) FilterState { return s.WithMaxPrice(floatPtr(10)) },
		"sort":     func(s FilterState) FilterState { return s.WithSort(Sort{By: SortByPrice, Order: SortAsc}) },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			next := change(base)
			assert.Equal(t, 1, next.Page)
			assert.Equal(t, 4, base.Page, "original value must not change")
		})
	}
}

func TestWithPageKeepsFilters(t *testing.T) {
	s := DefaultFilterState().WithStatuses([]Status{StatusRejected}).WithPage(3)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, []Status{StatusRejected}, s.Statuses)

	assert.Equal(t, 1, s.WithPage(0).Page)
	assert.Equal(t, 1, s.WithPage(-7).Page)
}

func TestSettersCopyPointers(t *testing.T) {
	lower := 50.0
	s := DefaultFilterState().WithMinPrice(&lower)
	lower = 70
	require.NotNil(t, s.MinPrice)
	assert.Equal(t, 50.0, *s.MinPrice)
}

func TestNormalizeStatuses(t *testing.T) {
	got := NormalizeStatuses([]Status{StatusRejected, "bogus", StatusPending, StatusRejected})
	if diff := cmp.Diff([]Status{StatusPending, StatusRejected}, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, NormalizeStatuses(nil))
	assert.Nil(t, NormalizeStatuses([]Status{"unknown"}))
}

func TestParseSort(t *testing.T) {
	s, ok := ParseSort("priority_desc")
	require.True(t, ok)
	assert.Equal(t, Sort{By: SortByPriority, Order: SortDesc}, s)
	assert.Equal(t, "priority_desc", s.String())

	for _, bad := range []string{"", "priority", "name_asc", "price_up", "_"} {
		s, ok := ParseSort(bad)
		assert.False(t, ok, bad)
		assert.Equal(t, DefaultSort, s, bad)
	}
}

func TestIsDefaultView(t *testing.T) {
	def := DefaultFilterState()
	assert.True(t, def.IsDefaultView())
	assert.True(t, def.WithSearch("la").IsDefaultView(), "too short search is not a filter")
	assert.False(t, def.WithSearch("laptop").IsDefaultView())
	assert.False(t, def.WithPage(2).IsDefaultView())
	assert.False(t, def.WithStatuses([]Status{StatusPending}).IsDefaultView())
	assert.False(t, def.WithSort(Sort{By: SortByPrice, Order: SortDesc}).IsDefaultView())
	assert.False(t, def.WithMaxPrice(floatPtr(5)).IsDefaultView())
}

func TestSearchLengthRule(t *testing.T) {
	cases := []struct {
		raw  string
		want *string
	}{
		{raw: "", want: nil},
		{raw: "l", want: nil},
		{raw: "la", want: nil},
		{raw: "  la  ", want: nil},
		{raw: "лап", want: strPtr("лап")},
		{raw: " laptop ", want: strPtr("laptop")},
	}
	for _, tc := range cases {
		d := BuildDescriptor(DefaultFilterState().WithSearch(tc.raw), 10)
		assert.Equal(t, tc.want, d.Search, "raw=%q", tc.raw)
	}
}

func TestDescriptorStatusOrderIndependent(t *testing.T) {
	a := DefaultFilterState().WithStatuses([]Status{StatusRejected, StatusPending, StatusApproved})
	b := DefaultFilterState().WithStatuses([]Status{StatusApproved, StatusRejected, StatusPending})
	// обходим нормализацию сеттера, чтобы проверить сам дескриптор
	c := a
	c.Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusPending}

	assert.Equal(t, BuildDescriptor(a, 10).Key(), BuildDescriptor(b, 10).Key())
	assert.Equal(t, BuildDescriptor(a, 10).Key(), BuildDescriptor(c, 10).Key())
	assert.True(t, BuildDescriptor(a, 10).Equal(BuildDescriptor(a, 10)))
}

func TestDescriptorNumericCoercion(t *testing.T) {
	s := DefaultFilterState().
		WithMinPrice(floatPtr(0)).
		WithMaxPrice(floatPtr(math.NaN())).
		WithCategory(intPtr(0))
	d := BuildDescriptor(s, 10)
	assert.Nil(t, d.MinPrice)
	assert.Nil(t, d.MaxPrice)
	assert.Nil(t, d.CategoryID)
	assert.Equal(t, BuildDescriptor(DefaultFilterState(), 10).Key(), d.Key())
}

func TestDescriptorQuery(t *testing.T) {
	s := DefaultFilterState().
		WithStatuses([]Status{StatusRejected, StatusPending}).
		WithCategory(intPtr(2)).
		WithMinPrice(floatPtr(1500.5)).
		WithMaxPrice(floatPtr(100)).
		WithSort(Sort{By: SortByPriority, Order: SortDesc}).
		WithPage(3)

	q := BuildDescriptor(s, 0).Query()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, []string{"pending", "rejected"}, q["status[]"])
	assert.Equal(t, "2", q.Get("categoryId"))
	assert.Equal(t, "1500.5", q.Get("minPrice"))
	assert.Equal(t, "100", q.Get("maxPrice"), "min may exceed max, the server decides")
	assert.Equal(t, "priority", q.Get("sortBy"))
	assert.Equal(t, "desc", q.Get("sortOrder"))
	assert.False(t, q.Has("search"))
}

func TestPageHelpers(t *testing.T) {
	page := AdsPage{Items: []Ad{
		{ID: 3, Status: StatusPending, CreatedAt: mustTime(t, "2025-10-01T10:00:00Z")},
		{ID: 1, Status: StatusApproved, CreatedAt: mustTime(t, "2025-10-03T10:00:00Z")},
		{ID: 2, Status: StatusRejected, CreatedAt: mustTime(t, "2025-10-02T10:00:00Z")},
	}}
	assert.Equal(t, []int{3, 1, 2}, page.IDs())
	assert.Equal(t, map[int]Status{1: StatusApproved, 2: StatusRejected, 3: StatusPending}, page.StatusByID())

	latest, ok := page.LatestCreatedAt()
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2025-10-03T10:00:00Z"), latest)

	_, ok = AdsPage{}.LatestCreatedAt()
	assert.False(t, ok)
}

func TestBulkOutcome(t *testing.T) {
	assert.Equal(t, OutcomeNothingEligible, BulkResult{Skipped: []int{1}}.Outcome())
	assert.Equal(t, OutcomeSucceeded, BulkResult{Eligible: []int{1}, Succeeded: []int{1}}.Outcome())
	assert.Equal(t, OutcomeFailed, BulkResult{Eligible: []int{1}, Failed: []BulkFailure{{ID: 1}}}.Outcome())
	assert.Equal(t, OutcomePartiallyFailed, BulkResult{
		Eligible:  []int{1, 2},
		Succeeded: []int{2},
		Failed:    []BulkFailure{{ID: 1}},
	}.Outcome())
	assert.Equal(t, StatusDraft, ActionRequestChanges.TargetStatus())
}
