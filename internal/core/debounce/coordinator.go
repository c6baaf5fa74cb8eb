// Package debounce откладывает фиксацию шумного ввода (поиск, границы цены)
// до паузы в наборе. Каждый канал ввода имеет собственный таймер.
package debounce

import (
	"time"

	"moderation-console/internal/core/port"
)

// Channel - именованный источник ввода.
type Channel string

const (
	ChannelSearch   Channel = "search"
	ChannelMinPrice Channel = "minPrice"
	ChannelMaxPrice Channel = "maxPrice"
)

// Channels - все каналы в стабильном порядке.
var Channels = []Channel{ChannelSearch, ChannelMinPrice, ChannelMaxPrice}

// DefaultDelay - пауза в наборе, после которой значение фиксируется.
const DefaultDelay = 500 * time.Millisecond

// CommitFunc получает последнее сырое значение канала после паузы.
type CommitFunc func(channel Channel, raw string)

type slot struct {
	raw   string
	timer port.Timer
	gen   uint64
}

// Coordinator не потокобезопасен: все методы и CommitFunc вызываются
// в цикле событий владельца, post возвращает туда сработавшие таймеры.
type Coordinator struct {
	delay  time.Duration
	clock  port.ClockPort
	post   func(func())
	commit CommitFunc
	slots  map[Channel]*slot
}

func New(delay time.Duration, clock port.ClockPort, post func(func()), commit CommitFunc) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coordinator{
		delay:  delay,
		clock:  clock,
		post:   post,
		commit: commit,
		slots:  make(map[Channel]*slot),
	}
}

func (c *Coordinator) slot(ch Channel) *slot {
	s, ok := c.slots[ch]
	if !ok {
		s = &slot{}
		c.slots[ch] = s
	}
	return s
}

// Update запоминает сырое значение и перезапускает таймер только этого канала.
func (c *Coordinator) Update(ch Channel, raw string) {
	s := c.slot(ch)
	s.raw = raw
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = c.clock.AfterFunc(c.delay, func() {
		c.post(func() { c.fire(ch, gen) })
	})
}

// fire выполняется в цикле событий. Таймер, который успел сработать,
// но был перезапущен до выполнения, отбрасывается по поколению.
func (c *Coordinator) fire(ch Channel, gen uint64) {
	s, ok := c.slots[ch]
	if !ok || s.gen != gen || s.timer == nil {
		return
	}
	s.timer = nil
	c.commit(ch, s.raw)
}

// Flush немедленно фиксирует ожидающее значение канала. false - нечего фиксировать.
func (c *Coordinator) Flush(ch Channel) bool {
	s, ok := c.slots[ch]
	if !ok || s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	c.commit(ch, s.raw)
	return true
}

// Reset отменяет все ожидающие таймеры и перезаписывает буферы.
// Каналы, которых нет в values, очищаются.
func (c *Coordinator) Reset(values map[Channel]string) {
	for _, ch := range Channels {
		s := c.slot(ch)
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.gen++
		s.raw = values[ch]
	}
}

// Raw возвращает текст, который сейчас находится в поле ввода.
func (c *Coordinator) Raw(ch Channel) string {
	if s, ok := c.slots[ch]; ok {
		return s.raw
	}
	return ""
}

// Pending сообщает, ждет ли канал фиксации.
func (c *Coordinator) Pending(ch Channel) bool {
	s, ok := c.slots[ch]
	return ok && s.timer != nil
}

// Stop отменяет все таймеры без фиксации.
func (c *Coordinator) Stop() {
	for _, s := range c.slots {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.gen++
	}
}
