package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/core/domain"
	"moderation-console/internal/testkit"
)

type pollReply struct {
	n   int
	err error
}

type fakePoller struct {
	mu      sync.Mutex
	sinces  []time.Time
	replies chan pollReply
}

func newFakePoller() *fakePoller {
	return &fakePoller{replies: make(chan pollReply, 16)}
}

func (p *fakePoller) poll(ctx context.Context, since time.Time) (int, error) {
	p.mu.Lock()
	p.sinces = append(p.sinces, since)
	p.mu.Unlock()
	r := <-p.replies
	return r.n, r.err
}

func (p *fakePoller) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sinces)
}

var base = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func firstPage(latest time.Time) domain.AdsPage {
	return domain.AdsPage{Items: []domain.Ad{
		{ID: 1, CreatedAt: latest.Add(-time.Hour)},
		{ID: 2, CreatedAt: latest},
	}}
}

func newTestWatcher(t *testing.T) (*Watcher, *fakePoller, *testkit.Loop, *testkit.Clock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	p := newFakePoller()
	loop := testkit.NewLoop()
	clock := testkit.NewClock(base)
	w := New(ctx, p.poll, loop.Post, clock.Now, DefaultGrace)
	return w, p, loop, clock
}

func TestIdleUntilFirstPage(t *testing.T) {
	w, p, _, _ := newTestWatcher(t)
	assert.False(t, w.Tick())
	w.ObserveFirstPage(domain.AdsPage{})
	assert.Equal(t, Idle, w.Snapshot().State)
	assert.Zero(t, p.calls())
}

func TestArmingPollsImmediately(t *testing.T) {
	w, p, loop, _ := newTestWatcher(t)
	latest := base.Add(-time.Minute)

	w.ObserveFirstPage(firstPage(latest))
	snap := w.Snapshot()
	assert.Equal(t, Armed, snap.State)
	assert.Equal(t, latest, snap.HighWater)

	p.replies <- pollReply{n: 3}
	loop.RunNext(t)
	assert.Equal(t, 3, w.Snapshot().Count)
	require.Equal(t, 1, p.calls())
	assert.Equal(t, latest, p.sinces[0])
}

func TestTickSkipsInFlightAndGraceWindow(t *testing.T) {
	w, p, loop, clock := newTestWatcher(t)
	w.ObserveFirstPage(firstPage(base))
	assert.False(t, w.Tick(), "poll already in flight")

	p.replies <- pollReply{n: 1}
	loop.RunNext(t)

	clock.Advance(2 * time.Second)
	assert.False(t, w.Tick(), "last result is still fresh")

	clock.Advance(3 * time.Second)
	assert.True(t, w.Tick())
	p.replies <- pollReply{n: 4}
	loop.RunNext(t)
	assert.Equal(t, 4, w.Snapshot().Count, "results replace, never accumulate")
}

func TestPollErrorKeepsLastCount(t *testing.T) {
	w, p, loop, clock := newTestWatcher(t)
	w.ObserveFirstPage(firstPage(base))
	p.replies <- pollReply{n: 2}
	loop.RunNext(t)

	clock.Advance(5 * time.Second)
	require.True(t, w.Tick())
	p.replies <- pollReply{err: errors.New("connection refused")}
	loop.RunNext(t)
	assert.Equal(t, 2, w.Snapshot().Count)

	assert.True(t, w.Tick(), "failed poll does not start the grace window")
	p.replies <- pollReply{n: 2}
	loop.RunNext(t)
}

func TestPausedWatcherDoesNotPoll(t *testing.T) {
	w, p, loop, clock := newTestWatcher(t)
	w.ObserveFirstPage(firstPage(base))
	p.replies <- pollReply{n: 1}
	loop.RunNext(t)

	w.Pause()
	assert.Equal(t, Paused, w.Snapshot().State)
	clock.Advance(time.Minute)
	assert.False(t, w.Tick())
	assert.Equal(t, 1, p.calls())
	assert.Equal(t, 1, w.Snapshot().Count)
}

func TestResultAfterPauseIsDiscarded(t *testing.T) {
	w, p, loop, _ := newTestWatcher(t)
	w.ObserveFirstPage(firstPage(base))
	w.Pause()

	p.replies <- pollReply{n: 9}
	loop.RunNext(t)
	assert.Zero(t, w.Snapshot().Count)
}

func TestLoadNewZeroesAndRearmsOnNextFirstPage(t *testing.T) {
	w, p, loop, _ := newTestWatcher(t)
	var snaps []Snapshot
	w.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	w.ObserveFirstPage(firstPage(base))
	p.replies <- pollReply{n: 5}
	loop.RunNext(t)

	w.LoadNew()
	assert.Equal(t, Snapshot{State: Paused, Count: 0, HighWater: base}, w.Snapshot())

	newer := base.Add(10 * time.Minute)
	w.ObserveFirstPage(firstPage(newer))
	assert.Equal(t, Armed, w.Snapshot().State)
	assert.Equal(t, newer, w.Snapshot().HighWater)

	p.replies <- pollReply{n: 0}
	loop.RunNext(t)
	assert.Equal(t, newer, p.sinces[1])

	require.NotEmpty(t, snaps)
	assert.Equal(t, Armed, snaps[len(snaps)-1].State)
}

func TestReturningToDefaultViewRearms(t *testing.T) {
	w, p, loop, _ := newTestWatcher(t)
	w.ObserveFirstPage(firstPage(base))
	p.replies <- pollReply{n: 0}
	loop.RunNext(t)

	w.Pause()
	w.ObserveFirstPage(firstPage(base))
	assert.Equal(t, Armed, w.Snapshot().State)
	p.replies <- pollReply{n: 2}
	loop.RunNext(t)
	assert.Equal(t, 2, w.Snapshot().Count)

	w.ObserveFirstPage(firstPage(base))
	assert.Equal(t, 2, p.calls(), "same baseline while armed does not poll again")
}
