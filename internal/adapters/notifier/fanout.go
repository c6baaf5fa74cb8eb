package notifier

import (
	"context"

	"moderation-console/internal/core/port"
)

// Fanout передает каждое событие всем получателям по очереди.
// Получатели не должны блокироваться.
type Fanout []port.NotifierPort

func (f Fanout) Notify(ctx context.Context, event port.SessionEvent) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}
