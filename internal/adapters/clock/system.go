package clock

import (
	"time"

	"moderation-console/internal/core/port"
)

// System - реальные часы процесса.
type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
