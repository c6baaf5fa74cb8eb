package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/preferences"
	"moderation-console/internal/core/session"
)

// ThemeService - режим темы оформления.
type ThemeService interface {
	Mode(ctx context.Context) (preferences.Theme, error)
	Set(ctx context.Context, mode preferences.Theme) error
	Toggle(ctx context.Context) (preferences.Theme, error)
}

// ConsoleHandler обслуживает /api/v1 поверх одной сессии модерации.
type ConsoleHandler struct {
	console session.Console
	theme   ThemeService
}

func NewConsoleHandler(console session.Console, theme ThemeService) *ConsoleHandler {
	return &ConsoleHandler{console: console, theme: theme}
}

func handlerLogger(r *http.Request, name string) port.LoggerPort {
	return contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": name})
}

// respondView отвечает текущим снимком сессии.
func (h *ConsoleHandler) respondView(w http.ResponseWriter, r *http.Request, logger port.LoggerPort) {
	v, err := h.console.View(r.Context())
	if err != nil {
		respondError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toViewResponse(v))
}

// mutate выполняет изменение и отвечает снимком после него.
func (h *ConsoleHandler) mutate(name string, op func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := handlerLogger(r, name)
		if err := op(r); err != nil {
			var bad badRequestError
			if errors.As(err, &bad) {
				WriteJSONError(w, http.StatusBadRequest, bad.Error())
				return
			}
			respondError(w, logger, err)
			return
		}
		h.respondView(w, r, logger)
	}
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, badRequest("invalid ad id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func actionParam(r *http.Request) (domain.ModerationAction, error) {
	action := domain.ModerationAction(chi.URLParam(r, "action"))
	if action.TargetStatus() == "" {
		return "", badRequest("unknown action %q", action)
	}
	return action, nil
}

// --- Просмотр ---

// GetView обрабатывает GET /api/v1/view
func (h *ConsoleHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, handlerLogger(r, "GetView"))
}

// --- Поля ввода с задержкой ---

func (h *ConsoleHandler) SetInput(name string, set func(session.Console, context.Context, string) error) http.HandlerFunc {
	return h.mutate(name, func(r *http.Request) error {
		var req inputRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		return set(h.console, r.Context(), req.Value)
	})
}

func (h *ConsoleHandler) FlushInputs(w http.ResponseWriter, r *http.Request) {
	h.mutate("FlushInputs", func(r *http.Request) error {
		return h.console.FlushInputs(r.Context())
	})(w, r)
}

// --- Фильтры, сортировка, страница ---

func (h *ConsoleHandler) SetStatuses(w http.ResponseWriter, r *http.Request) {
	h.mutate("SetStatuses", func(r *http.Request) error {
		var req statusesRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		return h.console.SetStatuses(r.Context(), req.Statuses)
	})(w, r)
}

func (h *ConsoleHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	h.mutate("SetCategory", func(r *http.Request) error {
		var req categoryRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		return h.console.SetCategory(r.Context(), req.CategoryID)
	})(w, r)
}

func (h *ConsoleHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	h.mutate("SetSort", func(r *http.Request) error {
		var req sortRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		sort, ok := domain.ParseSort(req.Sort)
		if !ok {
			return badRequest("invalid sort %q", req.Sort)
		}
		return h.console.SetSort(r.Context(), sort)
	})(w, r)
}

func (h *ConsoleHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	h.mutate("SetPage", func(r *http.Request) error {
		var req pageRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		return h.console.SetPage(r.Context(), req.Page)
	})(w, r)
}

func (h *ConsoleHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	h.mutate("ResetFilters", func(r *http.Request) error {
		return h.console.ResetFilters(r.Context())
	})(w, r)
}

// Navigate применяет строку запроса целиком, как переход по ссылке.
func (h *ConsoleHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	h.mutate("Navigate", func(r *http.Request) error {
		var req navigateRequest
		if err := decodeBody(r, &req); err != nil {
			return badRequest("invalid request body: %v", err)
		}
		return h.console.Navigate(r.Context(), req.Query)
	})(w, r)
}

func (h *ConsoleHandler) historyMove(name string, move func(context.Context) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moved, err := move(r.Context())
		if err != nil {
			respondError(w, handlerLogger(r, name), err)
			return
		}
		RespondWithJSON(w, http.StatusOK, historyMoveResponse{Moved: moved})
	}
}

// --- Выбор ---

func (h *ConsoleHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	h.mutate("ToggleSelection", func(r *http.Request) error {
		id, err := idParam(r)
		if err != nil {
			return err
		}
		return h.console.Toggle(r.Context(), id)
	})(w, r)
}

func (h *ConsoleHandler) SelectAllOnPage(w http.ResponseWriter, r *http.Request) {
	h.mutate("SelectAllOnPage", func(r *http.Request) error {
		return h.console.SelectAllOnPage(r.Context())
	})(w, r)
}

func (h *ConsoleHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.mutate("ClearSelection", func(r *http.Request) error {
		return h.console.ClearSelection(r.Context())
	})(w, r)
}

// --- Массовые действия ---

// Bulk обрабатывает POST /api/v1/bulk/{action}
func (h *ConsoleHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "Bulk")

	action, err := actionParam(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var result domain.BulkResult
	switch action {
	case domain.ActionApprove:
		result, err = h.console.BulkApprove(r.Context())
	case domain.ActionReject:
		result, err = h.console.BulkReject(r.Context(), req.Reason, req.Comment)
	case domain.ActionRequestChanges:
		result, err = h.console.BulkRequestChanges(r.Context(), req.Reason, req.Comment)
	}
	if err != nil {
		respondError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toBulkResultResponse(result))
}

func (h *ConsoleHandler) LoadNew(w http.ResponseWriter, r *http.Request) {
	h.mutate("LoadNew", func(r *http.Request) error {
		return h.console.LoadNew(r.Context())
	})(w, r)
}

// --- Пресеты ---

func (h *ConsoleHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	names, err := h.console.ListPresets(r.Context())
	if err != nil {
		respondError(w, handlerLogger(r, "ListPresets"), err)
		return
	}
	if names == nil {
		names = []string{}
	}
	RespondWithJSON(w, http.StatusOK, presetsResponse{Presets: names})
}

func (h *ConsoleHandler) SavePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.console.SavePreset(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondError(w, handlerLogger(r, "SavePreset"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsoleHandler) LoadPreset(w http.ResponseWriter, r *http.Request) {
	h.mutate("LoadPreset", func(r *http.Request) error {
		return h.console.LoadPreset(r.Context(), chi.URLParam(r, "name"))
	})(w, r)
}

func (h *ConsoleHandler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.console.DeletePreset(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondError(w, handlerLogger(r, "DeletePreset"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsoleHandler) ClearPresets(w http.ResponseWriter, r *http.Request) {
	if err := h.console.ClearPresets(r.Context()); err != nil {
		respondError(w, handlerLogger(r, "ClearPresets"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Одно объявление ---

// GetAd обрабатывает GET /api/v1/ads/{id}
func (h *ConsoleHandler) GetAd(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetAd")
	id, err := idParam(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ad, err := h.console.AdDetails(r.Context(), id)
	if err != nil {
		respondError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toAdDetailsResponse(ad))
}

// ModerateAd обрабатывает POST /api/v1/ads/{id}/{action}
func (h *ConsoleHandler) ModerateAd(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "ModerateAd")
	id, err := idParam(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, err := actionParam(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch action {
	case domain.ActionApprove:
		err = h.console.ApproveAd(r.Context(), id)
	case domain.ActionReject:
		err = h.console.RejectAd(r.Context(), id, req.Reason, req.Comment)
	case domain.ActionRequestChanges:
		err = h.console.RequestChangesAd(r.Context(), id, req.Reason, req.Comment)
	}
	if err != nil {
		respondError(w, logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReasons отдает справочник причин отклонения.
func (h *ConsoleHandler) GetReasons(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, reasonsResponse{Reasons: domain.RejectionReasons})
}

// --- Тема ---

func (h *ConsoleHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := h.theme.Mode(r.Context())
	if err != nil {
		// режим по умолчанию все равно возвращается
		handlerLogger(r, "GetTheme").Warn("Could not read theme mode", port.Fields{"error": err.Error()})
	}
	RespondWithJSON(w, http.StatusOK, themeResponse{Mode: string(mode)})
}

func (h *ConsoleHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeBody(r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode := preferences.Theme(req.Mode)
	if mode != preferences.ThemeLight && mode != preferences.ThemeDark {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown theme mode %q", req.Mode))
		return
	}
	if err := h.theme.Set(r.Context(), mode); err != nil {
		respondError(w, handlerLogger(r, "SetTheme"), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, themeResponse{Mode: string(mode)})
}

func (h *ConsoleHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := h.theme.Toggle(r.Context())
	if err != nil {
		respondError(w, handlerLogger(r, "ToggleTheme"), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, themeResponse{Mode: string(mode)})
}
