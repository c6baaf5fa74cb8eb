package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"moderation-console/internal/adapters/adsapi"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/preferences"
)

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// decodeBody читает JSON-тело запроса. Пустое тело допустимо.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// statusForError сопоставляет ошибки ядра и клиента API с HTTP-статусами.
func statusForError(err error) int {
	var apiErr *adsapi.StatusError
	switch {
	case errors.Is(err, domain.ErrAdNotFound), errors.Is(err, domain.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyReason), errors.Is(err, preferences.ErrEmptyPresetName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", err, port.Fields{"status_code": code})
	} else {
		logger.Warn("Request rejected", port.Fields{"status_code": code, "error": err.Error()})
	}
	WriteJSONError(w, code, err.Error())
}
