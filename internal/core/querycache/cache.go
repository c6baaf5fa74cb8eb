// Package querycache кэширует результаты запросов по каноническому ключу.
// Записи не устаревают по времени и удаляются только явной инвалидацией.
package querycache

import (
	"context"
	"time"
)

// Fetcher выполняет запрос. Вызывается вне цикла событий.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Result - завершенная загрузка, доставляется слушателю в цикле событий.
type Result[V any] struct {
	Key       string
	Value     V
	Err       error
	FetchedAt time.Time
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
	ok        bool

	gen      uint64
	inFlight bool
	watchers int
	fetcher  Fetcher[V]
}

// Cache не потокобезопасен: методы вызываются только в цикле событий,
// загрузки идут в отдельных горутинах и возвращаются через post.
type Cache[V any] struct {
	ctx      context.Context
	post     func(func())
	now      func() time.Time
	listener func(Result[V])
	entries  map[string]*entry[V]
	seq      uint64
	// stamp растет при каждой инвалидации
	stamp uint64
}

// New создает кэш. ctx ограничивает время жизни всех загрузок.
func New[V any](ctx context.Context, post func(func()), now func() time.Time, listener func(Result[V])) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	if listener == nil {
		listener = func(Result[V]) {}
	}
	return &Cache[V]{
		ctx:      ctx,
		post:     post,
		now:      now,
		listener: listener,
		entries:  make(map[string]*entry[V]),
	}
}

func (c *Cache[V]) entry(key string) *entry[V] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	return e
}

// Watch помечает ключ наблюдаемым и запускает загрузку, если данных нет
// и загрузка еще не идет. Возвращает true, если загрузка запущена.
func (c *Cache[V]) Watch(key string, fetch Fetcher[V]) bool {
	e := c.entry(key)
	e.watchers++
	e.fetcher = fetch
	if e.ok || e.inFlight {
		return false
	}
	c.start(key, e)
	return true
}

// Unwatch снимает наблюдение. Данные остаются в кэше.
func (c *Cache[V]) Unwatch(key string) {
	e, ok := c.entries[key]
	if !ok || e.watchers == 0 {
		return
	}
	e.watchers--
}

// Fetch запускает загрузку без наблюдения (например, деталей объявления).
func (c *Cache[V]) Fetch(key string, fetch Fetcher[V]) bool {
	e := c.entry(key)
	if e.ok || e.inFlight {
		return false
	}
	e.fetcher = fetch
	c.start(key, e)
	return true
}

// Get возвращает сохраненное значение.
func (c *Cache[V]) Get(key string) (V, time.Time, bool) {
	e, ok := c.entries[key]
	if !ok || !e.ok {
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// Put сохраняет значение, полученное в обход Fetch (например, ответ мутации).
func (c *Cache[V]) Put(key string, value V) {
	e := c.entry(key)
	e.value = value
	e.fetchedAt = c.now()
	e.ok = true
}

// Stamp возвращает метку инвалидаций. Ее берут перед загрузкой в обход
// кэша и передают в PutIfFresh.
func (c *Cache[V]) Stamp() uint64 {
	return c.stamp
}

// PutIfFresh сохраняет значение, только если после получения stamp
// не было инвалидаций. Иначе значение могло устареть, и оно не сохраняется.
func (c *Cache[V]) PutIfFresh(key string, value V, stamp uint64) bool {
	if stamp != c.stamp {
		return false
	}
	c.Put(key, value)
	return true
}

// InFlight сообщает, идет ли загрузка ключа.
func (c *Cache[V]) InFlight(key string) bool {
	e, ok := c.entries[key]
	return ok && e.inFlight
}

// Invalidate удаляет подходящие записи и перезагружает те из них,
// за которыми кто-то наблюдает. Возвращает число удаленных записей.
func (c *Cache[V]) Invalidate(match func(key string) bool) int {
	c.stamp++
	n := 0
	for key, e := range c.entries {
		if !match(key) {
			continue
		}
		n++
		var zero V
		e.value, e.ok, e.fetchedAt = zero, false, time.Time{}
		e.inFlight = false
		if e.watchers > 0 && e.fetcher != nil {
			c.start(key, e)
			continue
		}
		delete(c.entries, key)
	}
	return n
}

// Len - число ключей, о которых знает кэш.
func (c *Cache[V]) Len() int {
	return len(c.entries)
}

func (c *Cache[V]) start(key string, e *entry[V]) {
	c.seq++
	e.gen = c.seq
	e.inFlight = true
	gen := e.gen
	fetch := e.fetcher
	go func() {
		value, err := fetch(c.ctx)
		c.post(func() { c.settle(key, gen, value, err) })
	}()
}

// settle выполняется в цикле событий. Номер загрузки уникален в пределах кэша,
// поэтому результат загрузки, начатой до инвалидации, отбрасывается.
func (c *Cache[V]) settle(key string, gen uint64, value V, err error) {
	e, ok := c.entries[key]
	if !ok || e.gen != gen || !e.inFlight {
		return
	}
	e.inFlight = false
	res := Result[V]{Key: key, Err: err}
	if err == nil {
		e.value = value
		e.fetchedAt = c.now()
		e.ok = true
		res.Value = value
		res.FetchedAt = e.fetchedAt
	}
	if e.watchers == 0 && !e.ok {
		delete(c.entries, key)
	}
	c.listener(res)
}
