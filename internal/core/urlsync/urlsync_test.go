package urlsync

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/adapters/history"
	"moderation-console/internal/core/domain"
)

func TestDecodeToleratesMalformedValues(t *testing.T) {
	s := Parse("page=abc&minPrice=cheap&maxPrice=NaN&category=-3&status=pending&status=archived&sort=name_up")

	want := domain.DefaultFilterState()
	want.Statuses = []domain.Status{domain.StatusPending}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("decoded state mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmpty(t *testing.T) {
	assert.True(t, Parse("").Equal(domain.DefaultFilterState()))
	assert.True(t, Parse("?").Equal(domain.DefaultFilterState()))
	assert.True(t, Parse("%zz=1&page=0").Equal(domain.DefaultFilterState()))
}

func TestEncodeOmitsDefaults(t *testing.T) {
	assert.Equal(t, "", EncodeString(domain.DefaultFilterState()))

	category := 2
	s := domain.DefaultFilterState().
		WithCategory(&category).
		WithStatuses([]domain.Status{domain.StatusPending}).
		WithSort(domain.Sort{By: domain.SortByPriority, Order: domain.SortDesc})
	assert.Equal(t, "category=2&sort=priority_desc&status=pending", EncodeString(s))
}

func TestShortSearchStaysInURL(t *testing.T) {
	s := domain.DefaultFilterState().WithSearch("la")
	assert.Equal(t, "search=la", EncodeString(s))
	assert.Equal(t, "la", Parse(EncodeString(s)).Search)
}

func randomState(r *rand.Rand) domain.FilterState {
	s := domain.DefaultFilterState()
	words := []string{"", "l", "la", "laptop", "Ноутбук", "a&b=c", " spaced ", "100%"}
	s.Search = words[r.IntN(len(words))]
	for _, st := range domain.AllStatuses {
		if r.IntN(2) == 0 {
			s.Statuses = append(s.Statuses, st)
		}
	}
	s.Statuses = domain.NormalizeStatuses(s.Statuses)
	if r.IntN(2) == 0 {
		id := 1 + r.IntN(20)
		s.CategoryID = &id
	}
	if r.IntN(2) == 0 {
		v := float64(r.IntN(1_000_000)) / 100
		s.MinPrice = &v
	}
	if r.IntN(2) == 0 {
		v := r.Float64() * 1e7
		s.MaxPrice = &v
	}
	bys := []domain.SortBy{domain.SortByPriority, domain.SortByPrice, domain.SortByCreatedAt}
	orders := []domain.SortOrder{domain.SortAsc, domain.SortDesc}
	s.Sort = domain.Sort{By: bys[r.IntN(len(bys))], Order: orders[r.IntN(len(orders))]}
	s.Page = 1 + r.IntN(50)
	return s
}

func TestRoundTripProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 2025))
	for i := 0; i < 2000; i++ {
		s := randomState(r)
		got := Parse(EncodeString(s))
		if !got.Equal(s) {
			t.Fatalf("round trip #%d changed the state:\n%s", i, cmp.Diff(s, got))
		}
	}
}

func TestCommitModes(t *testing.T) {
	h := history.NewMemoryHistory("", 0)
	s := NewSync(h)

	var notified int
	s.Subscribe(func(prev, next domain.FilterState) { notified++ })

	require.True(t, s.Commit(s.State().WithSearch("l"), Replace))
	require.True(t, s.Commit(s.State().WithSearch("lap"), Replace))
	assert.Equal(t, 1, h.Len(), "debounced commits replace the entry")
	assert.Equal(t, "search=lap", h.Current())

	require.True(t, s.Commit(s.State().WithPage(2), Push))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 3, notified)

	assert.False(t, s.Commit(s.State(), Push), "equal state is a no-op")
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 3, notified)
}

func TestBackAndForward(t *testing.T) {
	h := history.NewMemoryHistory("status=pending", 0)
	s := NewSync(h)
	require.Equal(t, []domain.Status{domain.StatusPending}, s.State().Statuses)

	s.Commit(s.State().WithPage(3), Push)

	require.True(t, s.Back())
	assert.Equal(t, 1, s.State().Page)

	require.True(t, s.Forward())
	assert.Equal(t, 3, s.State().Page)

	assert.False(t, s.Forward())
}

func TestNavigateReplacesWholeState(t *testing.T) {
	h := history.NewMemoryHistory("search=phone&minPrice=10", 0)
	s := NewSync(h)

	require.True(t, s.Navigate("category=2&status=pending&sort=priority_desc"))

	got := s.State()
	assert.Empty(t, got.Search)
	assert.Nil(t, got.MinPrice)
	assert.Equal(t, "category=2&sort=priority_desc&status=pending", s.Query())
	assert.Equal(t, s.Query(), h.Current())
}
