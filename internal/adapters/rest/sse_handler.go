package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"moderation-console/internal/adapters/notifier"
	"moderation-console/internal/core/port"
)

const defaultKeepAlive = 15 * time.Second

// Subscribe обрабатывает GET /api/v1/events
func (h *ConsoleHandler) Subscribe(hub *notifier.SSENotifier, keepAlive time.Duration) http.HandlerFunc {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(r, "Subscribe")

		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteJSONError(w, http.StatusInternalServerError, "streaming is not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		clientID, clientChan := hub.AddClient()
		defer hub.RemoveClient(clientID)

		// первым сообщением клиент получает текущий снимок
		if v, err := h.console.View(r.Context()); err == nil {
			payload := PresentEvent(port.SessionEvent{Type: port.EventView, Data: v})
			if err := writeEvent(w, port.EventView, payload); err != nil {
				return
			}
		}
		flusher.Flush()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case data := <-clientChan:
				if _, err := w.Write(data); err != nil {
					logger.Warn("Error writing to client, closing SSE connection", port.Fields{"error": err.Error()})
					return
				}
				flusher.Flush()

			case <-ticker.C:
				// строки, начинающиеся с двоеточия, в SSE - комментарии
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()

			case <-r.Context().Done():
				logger.Debug("SSE client disconnected.", nil)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}
