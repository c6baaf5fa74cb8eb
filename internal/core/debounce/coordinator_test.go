package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/testkit"
)

type commit struct {
	ch  Channel
	raw string
}

func newTestCoordinator(t *testing.T) (*Coordinator, *testkit.Clock, *testkit.Loop, *[]commit) {
	t.Helper()
	clock := testkit.NewClock(time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC))
	loop := testkit.NewLoop()
	var commits []commit
	c := New(500*time.Millisecond, clock, loop.Post, func(ch Channel, raw string) {
		commits = append(commits, commit{ch: ch, raw: raw})
	})
	return c, clock, loop, &commits
}

func TestTypingCommitsOnlyLastValue(t *testing.T) {
	c, clock, loop, commits := newTestCoordinator(t)

	c.Update(ChannelSearch, "l")
	clock.Advance(100 * time.Millisecond)
	c.Update(ChannelSearch, "la")
	clock.Advance(100 * time.Millisecond)
	c.Update(ChannelSearch, "lap")

	clock.Advance(499 * time.Millisecond)
	loop.RunPending()
	assert.Empty(t, *commits)
	assert.Equal(t, "lap", c.Raw(ChannelSearch))

	clock.Advance(time.Millisecond)
	loop.RunPending()
	require.Len(t, *commits, 1)
	assert.Equal(t, commit{ch: ChannelSearch, raw: "lap"}, (*commits)[0])
	assert.False(t, c.Pending(ChannelSearch))
}

func TestChannelsAreIndependent(t *testing.T) {
	c, clock, loop, commits := newTestCoordinator(t)

	c.Update(ChannelMinPrice, "100")
	clock.Advance(300 * time.Millisecond)
	c.Update(ChannelMaxPrice, "500")
	clock.Advance(200 * time.Millisecond)
	loop.RunPending()

	require.Len(t, *commits, 1)
	assert.Equal(t, ChannelMinPrice, (*commits)[0].ch)
	assert.True(t, c.Pending(ChannelMaxPrice))

	clock.Advance(300 * time.Millisecond)
	loop.RunPending()
	require.Len(t, *commits, 2)
	assert.Equal(t, commit{ch: ChannelMaxPrice, raw: "500"}, (*commits)[1])
}

func TestFiredButSupersededTimerIsDropped(t *testing.T) {
	c, clock, loop, commits := newTestCoordinator(t)

	c.Update(ChannelSearch, "lap")
	clock.Advance(500 * time.Millisecond)
	// таймер сработал, но функция еще в очереди, а пользователь продолжил ввод
	c.Update(ChannelSearch, "laptop")
	loop.RunPending()
	assert.Empty(t, *commits)

	clock.Advance(500 * time.Millisecond)
	loop.RunPending()
	require.Len(t, *commits, 1)
	assert.Equal(t, "laptop", (*commits)[0].raw)
}

func TestResetCancelsPendingTimers(t *testing.T) {
	c, clock, loop, commits := newTestCoordinator(t)

	c.Update(ChannelSearch, "phone")
	c.Update(ChannelMinPrice, "10")
	c.Reset(map[Channel]string{ChannelSearch: "car"})

	assert.Equal(t, "car", c.Raw(ChannelSearch))
	assert.Equal(t, "", c.Raw(ChannelMinPrice))
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Second)
	loop.RunPending()
	assert.Empty(t, *commits)
}

func TestFlushCommitsImmediately(t *testing.T) {
	c, clock, loop, commits := newTestCoordinator(t)

	assert.False(t, c.Flush(ChannelSearch))

	c.Update(ChannelSearch, "bike")
	require.True(t, c.Flush(ChannelSearch))
	require.Len(t, *commits, 1)

	clock.Advance(time.Second)
	loop.RunPending()
	assert.Len(t, *commits, 1, "the flushed timer must not fire again")
}
