package port

import "context"

// Типы событий, которые сессия отправляет подписчикам.
const (
	EventView         = "view"
	EventNewItems     = "new_items"
	EventNotification = "notification"
)

// SessionEvent - событие для внешнего UI.
type SessionEvent struct {
	Type string
	Data interface{}
}

// Notification - неблокирующее уведомление об ошибке или итоге операции.
type Notification struct {
	Level   string `json:"level"` // info, warning, error
	Message string `json:"message"`
}

// NotifierPort рассылает события сессии подключенным клиентам.
type NotifierPort interface {
	Notify(ctx context.Context, event SessionEvent)
}
