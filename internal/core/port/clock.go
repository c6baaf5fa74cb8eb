package port

import "time"

// Timer - отложенный вызов, который можно отменить.
type Timer interface {
	Stop() bool
}

// ClockPort отделяет ядро от реального времени, чтобы таймеры можно было
// прокручивать в тестах.
type ClockPort interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
