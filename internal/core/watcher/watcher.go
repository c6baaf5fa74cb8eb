// Package watcher опрашивает число объявлений, появившихся после последней
// загрузки первой страницы, не трогая текущий список.
package watcher

import (
	"context"
	"time"

	"moderation-console/internal/core/domain"
)

const (
	DefaultInterval = 5 * time.Second
	// DefaultGrace - результат опроса моложе этого считается свежим, и новый
	// опрос не запускается.
	DefaultGrace = 3 * time.Second
)

type State int

const (
	Idle State = iota
	Armed
	Paused
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// PollFunc возвращает число объявлений, созданных позже since.
type PollFunc func(ctx context.Context, since time.Time) (int, error)

// Snapshot - наблюдаемое состояние наблюдателя.
type Snapshot struct {
	State     State
	Count     int
	HighWater time.Time // нулевое значение, пока первая страница не загружена
}

// Watcher не потокобезопасен: методы вызываются в цикле событий сессии,
// результаты опросов возвращаются туда через post.
type Watcher struct {
	ctx   context.Context
	poll  PollFunc
	post  func(func())
	now   func() time.Time
	grace time.Duration

	state     State
	highWater time.Time
	count     int

	// epoch меняется при смене базовой метки или состояния;
	// ответ опроса из прошлой эпохи отбрасывается.
	epoch       uint64
	pollEpoch   uint64
	inFlight    bool
	lastSuccess time.Time

	listeners []func(Snapshot)
}

func New(ctx context.Context, poll PollFunc, post func(func()), now func() time.Time, grace time.Duration) *Watcher {
	if now == nil {
		now = time.Now
	}
	if grace < 0 {
		grace = 0
	}
	return &Watcher{ctx: ctx, poll: poll, post: post, now: now, grace: grace}
}

func (w *Watcher) Snapshot() Snapshot {
	return Snapshot{State: w.state, Count: w.count, HighWater: w.highWater}
}

func (w *Watcher) Subscribe(fn func(Snapshot)) {
	w.listeners = append(w.listeners, fn)
}

// ObserveFirstPage вызывается, когда на экране первая страница вида по умолчанию
// (из кэша или после загрузки). Метка берется как максимум createdAt на странице.
func (w *Watcher) ObserveFirstPage(page domain.AdsPage) {
	latest, ok := page.LatestCreatedAt()
	switch {
	case ok && !latest.Equal(w.highWater):
		w.highWater = latest
		w.count = 0
	case w.highWater.IsZero():
		return
	case w.state == Armed:
		return
	}
	w.state = Armed
	w.nextEpoch()
	w.notify()
	w.Tick()
}

// Pause останавливает опрос, пока пользователь смотрит отфильтрованный
// или не первую страницу. Счетчик сохраняется.
func (w *Watcher) Pause() {
	if w.state == Paused || w.state == Idle {
		return
	}
	w.state = Paused
	w.nextEpoch()
	w.notify()
}

// LoadNew обнуляет счетчик и приостанавливает опрос до следующей загрузки
// первой страницы, которая установит новую метку.
func (w *Watcher) LoadNew() {
	w.count = 0
	if w.state != Idle {
		w.state = Paused
	}
	w.nextEpoch()
	w.notify()
}

// Tick запускает опрос, если наблюдатель взведен, предыдущий опрос завершен
// и последний успешный результат старше окна свежести.
func (w *Watcher) Tick() bool {
	if w.state != Armed || w.inFlight {
		return false
	}
	if !w.lastSuccess.IsZero() && w.now().Sub(w.lastSuccess) < w.grace {
		return false
	}
	w.inFlight = true
	epoch := w.epoch
	w.pollEpoch = epoch
	since := w.highWater
	go func() {
		n, err := w.poll(w.ctx, since)
		w.post(func() { w.settle(epoch, n, err) })
	}()
	return true
}

// settle выполняется в цикле событий. Ошибки опроса не показываются
// пользователю: остается прежний счетчик, повтор на следующем тике.
func (w *Watcher) settle(epoch uint64, n int, err error) {
	if epoch == w.pollEpoch {
		w.inFlight = false
	}
	if epoch != w.epoch || w.state != Armed || err != nil {
		return
	}
	w.lastSuccess = w.now()
	if n < 0 {
		n = 0
	}
	if n != w.count {
		w.count = n
		w.notify()
	}
}

func (w *Watcher) nextEpoch() {
	w.epoch++
	w.inFlight = false
	w.lastSuccess = time.Time{}
}

func (w *Watcher) notify() {
	snap := w.Snapshot()
	for _, fn := range w.listeners {
		fn(snap)
	}
}
