package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"moderation-console/internal/adapters/history"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/preferences"
	"moderation-console/internal/core/usecase"
	"moderation-console/internal/testkit"
)

var epoch = time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

// fakeAPI - сервер модерации в памяти.
type fakeAPI struct {
	mu          sync.Mutex
	ads         map[int]domain.Ad
	listCalls   []domain.RequestDescriptor
	moderated   []int
	newCount    int
	newCountErr error
	pollCalls   int
	gates       map[int]chan struct{} // страница -> ожидание перед ответом
	adGate      chan struct{}         // GetAd ждет после чтения объявления
	getAdCalls  int
}

func newFakeAPI(n int) *fakeAPI {
	api := &fakeAPI{ads: map[int]domain.Ad{}, gates: map[int]chan struct{}{}}
	for id := 1; id <= n; id++ {
		api.ads[id] = domain.Ad{
			ID:        id,
			Title:     "ad",
			Status:    domain.StatusPending,
			CreatedAt: epoch.Add(time.Duration(id) * time.Minute),
		}
	}
	return api
}

func (f *fakeAPI) setStatus(id int, st domain.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ad := f.ads[id]
	ad.Status = st
	f.ads[id] = ad
}

func (f *fakeAPI) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[page] = ch
	return ch
}

func (f *fakeAPI) ListAds(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, d)
	gate := f.gates[d.Page]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.AdsPage{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Ad
	for _, ad := range f.ads {
		if len(d.Statuses) > 0 && !slices.Contains(d.Statuses, ad.Status) {
			continue
		}
		if d.Search != nil && !strings.Contains(ad.Title, *d.Search) {
			continue
		}
		matched = append(matched, ad)
	}
	// createdAt_desc
	slices.SortFunc(matched, func(a, b domain.Ad) int { return b.CreatedAt.Compare(a.CreatedAt) })

	total := len(matched)
	pages := (total + d.Limit - 1) / d.Limit
	start := min((d.Page-1)*d.Limit, total)
	end := min(start+d.Limit, total)
	return domain.AdsPage{
		Items: slices.Clone(matched[start:end]),
		Pagination: domain.Pagination{
			CurrentPage:  d.Page,
			TotalPages:   pages,
			TotalItems:   total,
			ItemsPerPage: d.Limit,
		},
	}, nil
}

// GetAd читает объявление до ожидания на adGate, поэтому задержанный ответ
// может оказаться старее состояния сервера.
func (f *fakeAPI) GetAd(ctx context.Context, id int) (domain.Ad, error) {
	f.mu.Lock()
	f.getAdCalls++
	ad, ok := f.ads[id]
	gate := f.adGate
	f.adGate = nil
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Ad{}, ctx.Err()
		}
	}
	if !ok {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	return ad, nil
}

func (f *fakeAPI) gateNextGetAd() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adGate = make(chan struct{})
	return f.adGate
}

func (f *fakeAPI) getAdCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getAdCalls
}

func (f *fakeAPI) Moderate(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moderated = append(f.moderated, id)
	if ad, ok := f.ads[id]; ok {
		ad.Status = action.TargetStatus()
		f.ads[id] = ad
	}
	return nil
}

func (f *fakeAPI) NewCount(ctx context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	return f.newCount, f.newCountErr
}

func (f *fakeAPI) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) lastList() domain.RequestDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[len(f.listCalls)-1]
}

func (f *fakeAPI) moderatedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := slices.Clone(f.moderated)
	slices.Sort(ids)
	return ids
}

func (f *fakeAPI) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type harness struct {
	t       *testing.T
	session *Session
	api     *fakeAPI
	clock   *testkit.Clock
	history *history.MemoryHistory
	cancel  context.CancelFunc
}

// newHarness запускает сессию; setup выполняется до первой загрузки.
func newHarness(t *testing.T, initialQuery string, ads int, setup ...func(*fakeAPI)) *harness {
	t.Helper()
	return newHarnessWithDeps(t, initialQuery, ads, nil, setup...)
}

// newHarnessWithDeps позволяет подменить зависимости сессии до запуска.
func newHarnessWithDeps(t *testing.T, initialQuery string, ads int, configure func(*Deps), setup ...func(*fakeAPI)) *harness {
	t.Helper()
	api := newFakeAPI(ads)
	for _, fn := range setup {
		fn(api)
	}
	clock := testkit.NewClock(epoch.Add(24 * time.Hour))
	hist := history.NewMemoryHistory(initialQuery, 0)

	deps := Deps{
		ListAds:   usecase.NewListAdsUseCase(api),
		AdDetails: usecase.NewGetAdDetailsUseCase(api),
		Moderate:  usecase.NewModerateAdUseCase(api, nil),
		Bulk:      usecase.NewBulkModerationUseCase(api, nil, 4),
		NewCount:  api.NewCount,
		Presets:   preferences.NewPresetStore(&memoryKV{values: map[string]string{}}),
		History:   hist,
		Clock:     clock,
	}
	if configure != nil {
		configure(&deps)
	}
	s := New(DefaultConfig(), deps)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return &harness{t: t, session: s, api: api, clock: clock, history: hist, cancel: cancel}
}

func (h *harness) view() View {
	h.t.Helper()
	v, err := h.session.View(context.Background())
	require.NoError(h.t, err)
	return v
}

// waitView ждет, пока снимок не удовлетворит условию.
func (h *harness) waitView(cond func(View) bool) View {
	h.t.Helper()
	var last View
	require.Eventually(h.t, func() bool {
		last = h.view()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func (h *harness) waitLoaded() View {
	h.t.Helper()
	return h.waitView(func(v View) bool { return !v.Loading && !v.Refreshing && len(v.Items) > 0 })
}
