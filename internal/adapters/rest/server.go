package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"moderation-console/internal/adapters/notifier"
	core_port "moderation-console/internal/core/port"
	"moderation-console/internal/core/session"
)

// ServerConfig - параметры локального API для браузерного UI.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// KeepAlive - период комментариев-пингов в потоке SSE.
	KeepAlive time.Duration
}

// Server - REST API консоли модерации.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
	// отмена базового контекста завершает открытые потоки SSE
	cancel context.CancelFunc
}

// NewRouter собирает маршруты /api/v1. Вынесен отдельно, чтобы тесты
// могли поднимать роутер без сетевого сервера.
func NewRouter(cfg ServerConfig, handlers *ConsoleHandler, hub *notifier.SSENotifier, baseLogger core_port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Trace-ID"},
			ExposedHeaders:   []string{"X-Trace-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/view", handlers.GetView)
		r.Get("/events", handlers.Subscribe(hub, cfg.KeepAlive))

		// поля ввода с задержкой
		r.Put("/inputs/search", handlers.SetInput("SetSearchInput", session.Console.SetSearchInput))
		r.Put("/inputs/min-price", handlers.SetInput("SetMinPriceInput", session.Console.SetMinPriceInput))
		r.Put("/inputs/max-price", handlers.SetInput("SetMaxPriceInput", session.Console.SetMaxPriceInput))
		r.Post("/inputs/flush", handlers.FlushInputs)

		r.Put("/filters/statuses", handlers.SetStatuses)
		r.Put("/filters/category", handlers.SetCategory)
		r.Put("/filters/sort", handlers.SetSort)
		r.Post("/filters/reset", handlers.ResetFilters)
		r.Put("/page", handlers.SetPage)
		r.Post("/navigate", handlers.Navigate)
		r.Post("/history/back", handlers.historyMove("Back", handlers.console.Back))
		r.Post("/history/forward", handlers.historyMove("Forward", handlers.console.Forward))

		r.Post("/selection/page", handlers.SelectAllOnPage)
		r.Post("/selection/{id}/toggle", handlers.ToggleSelection)
		r.Delete("/selection", handlers.ClearSelection)

		r.Post("/bulk/{action}", handlers.Bulk)
		r.Post("/new-items/load", handlers.LoadNew)

		r.Get("/presets", handlers.ListPresets)
		r.Delete("/presets", handlers.ClearPresets)
		r.Put("/presets/{name}", handlers.SavePreset)
		r.Post("/presets/{name}/load", handlers.LoadPreset)
		r.Delete("/presets/{name}", handlers.DeletePreset)

		r.Get("/ads/{id}", handlers.GetAd)
		r.Post("/ads/{id}/{action}", handlers.ModerateAd)
		r.Get("/reasons", handlers.GetReasons)

		r.Get("/theme", handlers.GetTheme)
		r.Put("/theme", handlers.SetTheme)
		r.Post("/theme/toggle", handlers.ToggleTheme)
	})

	return r
}

func NewServer(cfg ServerConfig, handlers *ConsoleHandler, hub *notifier.SSENotifier, baseLogger core_port.LoggerPort) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, handlers, hub, baseLogger),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		logger: baseLogger,
		cancel: cancel,
	}
}

// Start запускает HTTP-сервер и блокируется до его остановки.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}
