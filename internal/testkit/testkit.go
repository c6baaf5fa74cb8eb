// Package testkit содержит управляемые вручную часы и очередь событий для тестов ядра.
package testkit

import (
	"sort"
	"sync"
	"testing"
	"time"

	"moderation-console/internal/core/port"
)

// Loop - очередь отложенных функций, заменяющая цикл событий сессии.
// Post безопасен из любых горутин, выполнение - только в тесте.
type Loop struct {
	queue chan func()
}

func NewLoop() *Loop {
	return &Loop{queue: make(chan func(), 1024)}
}

func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// RunPending выполняет все уже поставленные функции и возвращает их число.
func (l *Loop) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// RunNext ждет одну функцию и выполняет ее.
func (l *Loop) RunNext(t testing.TB) {
	t.Helper()
	select {
	case fn := <-l.queue:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted function")
	}
}

// Clock - часы, время в которых двигается только через Advance.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*timer
}

var _ port.ClockPort = (*Clock)(nil)

type timer struct {
	clock   *Clock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) port.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance сдвигает время и синхронно запускает наступившие таймеры по порядку.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*timer
	rest := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending - число активных таймеров.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
