package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"moderation-console/internal/core/domain"
)

type moderateCall struct {
	ID       int
	Action   domain.ModerationAction
	Decision domain.Decision
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []moderateCall
	failIDs map[int]bool
	ads     map[int]domain.Ad
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failIDs: map[int]bool{}, ads: map[int]domain.Ad{}}
}

func (f *fakeAPI) ListAds(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error) {
	return domain.AdsPage{}, nil
}

func (f *fakeAPI) GetAd(ctx context.Context, id int) (domain.Ad, error) {
	ad, ok := f.ads[id]
	if !ok {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	return ad, nil
}

func (f *fakeAPI) Moderate(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, moderateCall{ID: id, Action: action, Decision: decision})
	if f.failIDs[id] {
		return errors.New("internal server error")
	}
	return nil
}

func (f *fakeAPI) NewCount(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeAPI) calledIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, len(f.calls))
	for i, c := range f.calls {
		ids[i] = c.ID
	}
	slices.Sort(ids)
	return ids
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.ModerationEvent
	err    error
}

func (f *fakeEvents) PublishModerationEvent(ctx context.Context, event domain.ModerationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}
