package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/port"
)

const (
	queueSize      = 256
	clientChanSize = 64
)

// ClientChannel - канал, через который события уходят одному подключенному клиенту
type ClientChannel chan []byte

// Presenter превращает событие сессии в тело data SSE-сообщения.
type Presenter func(event port.SessionEvent) interface{}

type eventWithContext struct {
	ctx   context.Context
	event port.SessionEvent
}

// SSENotifier - реализация NotifierPort: рассылает события сессии всем
// подключенным браузерным вкладкам.
type SSENotifier struct {
	clients map[string]ClientChannel
	mu      sync.RWMutex

	eventChan chan eventWithContext
	present   Presenter
	logger    port.LoggerPort

	done      chan struct{}
	closeOnce sync.Once
}

var _ port.NotifierPort = (*SSENotifier)(nil)

// NewSSENotifier создает и запускает нотификатор. present может быть nil,
// тогда Data события сериализуется как есть.
func NewSSENotifier(baseLogger port.LoggerPort, present Presenter) *SSENotifier {
	if present == nil {
		present = func(event port.SessionEvent) interface{} { return event.Data }
	}
	n := &SSENotifier{
		clients:   make(map[string]ClientChannel),
		eventChan: make(chan eventWithContext, queueSize),
		present:   present,
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
		done:      make(chan struct{}),
	}
	go n.dispatcher()
	return n
}

func (n *SSENotifier) dispatcher() {
	n.logger.Debug("Notifier dispatcher started.", nil)
	for {
		select {
		case <-n.done:
			n.logger.Debug("Notifier dispatcher stopped.", nil)
			return
		case pkg := <-n.eventChan:
			n.dispatch(pkg)
		}
	}
}

func (n *SSENotifier) dispatch(pkg eventWithContext) {
	eventLogger := contextkeys.LoggerFromContext(pkg.ctx).WithFields(port.Fields{
		"component":  "SSENotifier.dispatcher",
		"event_type": pkg.event.Type,
	})

	payload, err := json.Marshal(n.present(pkg.event))
	if err != nil {
		eventLogger.Error("Failed to marshal event", err, nil)
		return
	}
	message := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", pkg.event.Type, payload))

	n.mu.RLock()
	defer n.mu.RUnlock()
	for id, ch := range n.clients {
		// медленный клиент не должен задерживать остальных
		select {
		case ch <- message:
		default:
			eventLogger.Warn("Client channel is full, skipping.", port.Fields{"client_id": id})
		}
	}
}

// Notify вызывается из цикла событий сессии и никогда не блокируется.
func (n *SSENotifier) Notify(ctx context.Context, event port.SessionEvent) {
	select {
	case n.eventChan <- eventWithContext{ctx: ctx, event: event}:
	default:
		n.logger.Warn("Notifier queue is full, event dropped.", port.Fields{"event_type": event.Type})
	}
}

// AddClient регистрирует новое SSE-соединение
func (n *SSENotifier) AddClient() (string, ClientChannel) {
	id := uuid.New().String()
	ch := make(ClientChannel, clientChanSize)

	n.mu.Lock()
	n.clients[id] = ch
	total := len(n.clients)
	n.mu.Unlock()

	n.logger.Info("Client connected", port.Fields{"client_id": id, "total_connections": total})
	return id, ch
}

// RemoveClient удаляет клиента при отключении
func (n *SSENotifier) RemoveClient(id string) {
	n.mu.Lock()
	delete(n.clients, id)
	total := len(n.clients)
	n.mu.Unlock()

	n.logger.Info("Client disconnected", port.Fields{"client_id": id, "remaining_connections": total})
}

func (n *SSENotifier) ClientCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients)
}

// Close останавливает диспетчер. Повторный вызов безопасен.
func (n *SSENotifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}
