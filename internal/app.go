package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"

	"moderation-console/internal/adapters/adsapi"
	"moderation-console/internal/adapters/clock"
	"moderation-console/internal/adapters/filestore"
	"moderation-console/internal/adapters/history"
	logger_adapter "moderation-console/internal/adapters/logger"
	"moderation-console/internal/adapters/notifier"
	postgres_adapter "moderation-console/internal/adapters/postgres"
	"moderation-console/internal/adapters/rabbitmq"
	"moderation-console/internal/adapters/repl"
	"moderation-console/internal/adapters/rest"
	"moderation-console/internal/configs"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/preferences"
	"moderation-console/internal/core/session"
	"moderation-console/internal/core/usecase"
)

// Options - параметры запуска из командной строки.
type Options struct {
	EnvPath string
	// InitialQuery - строка запроса списка, с которой открывается сессия.
	InitialQuery string
	Repl         bool
}

type App struct {
	config    *configs.AppConfig
	session   *session.Session
	hub       *notifier.SSENotifier
	apiServer *rest.Server
	console   *repl.REPL

	dbPool       *pgxpool.Pool
	rabbit       *rabbitmq.ConnectionManager
	publisher    *rabbitmq.Publisher
	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

func NewApp(opts Options) (*App, error) {
	appConfig, err := configs.LoadConfig(opts.EnvPath)
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{config: appConfig}
	ok := false
	defer func() {
		if !ok {
			app.closeResources()
		}
	}()

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Writer:   os.Stderr,
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: !opts.Repl,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if appConfig.FluentBit.Enabled {
		app.fluentClient, err = logger_adapter.NewFluentClient(logger_adapter.FluentConfig{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(app.fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	app.logger = appLogger
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. ХРАНИЛИЩЕ НАСТРОЕК ---
	kv, err := app.newPreferencesStore(baseLogger)
	if err != nil {
		appLogger.Error("Failed to initialize preferences store", err, port.Fields{"backend": appConfig.Preferences.Backend})
		return nil, err
	}
	presets := preferences.NewPresetStore(kv)
	theme := preferences.NewThemeStore(kv)
	theme.Subscribe(func(mode preferences.Theme) {
		appLogger.Debug("Theme changed", port.Fields{"theme": string(mode)})
	})

	// --- 3. API МОДЕРАЦИИ И СОБЫТИЯ АУДИТА ---
	api := adsapi.NewClient(adsapi.Config{
		BaseURL:   appConfig.AdsAPI.URL,
		Timeout:   appConfig.AdsAPI.Timeout,
		RateLimit: appConfig.AdsAPI.RateLimit,
		RateBurst: appConfig.AdsAPI.RateBurst,
	})

	var events port.ModerationEventsPort
	if appConfig.RabbitMQ.Enabled {
		publisher, err := app.newEventPublisher(baseLogger)
		if err != nil {
			appLogger.Error("Failed to initialize moderation events publisher", err, nil)
			return nil, err
		}
		events = publisher
	}
	appLogger.Info("All persistence and service adapters initialized.", port.Fields{
		"ads_api": appConfig.AdsAPI.URL, "events_enabled": events != nil,
	})

	// --- 4. СЕССИЯ ---
	app.hub = notifier.NewSSENotifier(baseLogger, rest.PresentEvent)
	fanout := notifier.Fanout{app.hub}

	if opts.Repl {
		app.console = repl.New(nil, theme, os.Stdout, appConfig.Repl.HistoryFile)
		fanout = append(fanout, app.console)
	}

	app.session = session.New(session.Config{
		PageSize:      appConfig.Session.PageSize,
		DebounceDelay: appConfig.Session.DebounceDelay,
		PollInterval:  appConfig.Session.PollInterval,
		PollGrace:     appConfig.Session.PollGrace,
	}, session.Deps{
		ListAds:   usecase.NewListAdsUseCase(api),
		AdDetails: usecase.NewGetAdDetailsUseCase(api),
		Moderate:  usecase.NewModerateAdUseCase(api, events),
		Bulk:      usecase.NewBulkModerationUseCase(api, events, appConfig.Session.BulkConcurrency),
		NewCount:  api.NewCount,
		Presets:   presets,
		History:   history.NewMemoryHistory(opts.InitialQuery, appConfig.Session.HistoryLimit),
		Clock:     clock.NewSystem(),
		Notifier:  fanout,
		Logger:    baseLogger,
	})
	if app.console != nil {
		app.console.Attach(app.session)
	}
	handlers := rest.NewConsoleHandler(app.session, theme)

	// --- 5. REST API ---
	app.apiServer = rest.NewServer(rest.ServerConfig{
		Port:           appConfig.Rest.PORT,
		AllowedOrigins: appConfig.Rest.AllowedOrigins,
		KeepAlive:      appConfig.Rest.KeepAlive,
	}, handlers, app.hub, baseLogger)
	appLogger.Info("REST API server configured.", port.Fields{"port": appConfig.Rest.PORT})

	ok = true
	return app, nil
}

func (a *App) newPreferencesStore(baseLogger port.LoggerPort) (port.KeyValueStorePort, error) {
	cfg := a.config
	switch cfg.Preferences.Backend {
	case configs.PreferencesBackendPostgres:
		dbPool, err := postgres_adapter.NewClient(context.Background(), postgres_adapter.Config{
			DatabaseURL: cfg.Database.URL,
			MaxConns:    int32(cfg.Database.MaxConns),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.dbPool = dbPool
		a.logger.Info("Successfully connected to PostgreSQL pool!", nil)

		repo, err := postgres_adapter.NewPostgresPreferencesRepository(dbPool, cfg.Preferences.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres preferences repository: %w", err)
		}
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to prepare preferences table: %w", err)
		}
		return repo, nil
	default:
		store, err := filestore.NewStore(cfg.Preferences.File, baseLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create preferences file store: %w", err)
		}
		return store, nil
	}
}

func (a *App) newEventPublisher(baseLogger port.LoggerPort) (*rabbitmq.ModerationEventPublisher, error) {
	cfg := a.config.RabbitMQ
	manager, err := rabbitmq.NewConnectionManager(cfg.URL, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	a.rabbit = manager

	publisher, err := rabbitmq.NewPublisher(rabbitmq.PublisherConfig{
		ExchangeName:    cfg.Exchange,
		ExchangeType:    "topic",
		Durable:         true,
		DeclareExchange: true,
	}, manager.Channel, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
	}
	a.publisher = publisher

	return rabbitmq.NewModerationEventPublisher(publisher, cfg.RoutingPrefix)
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if err := a.apiServer.Stop(context.Background()); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}
		cancelApp()
		<-a.session.Done()
		a.hub.Close()

		a.logger.Info("Application shut down gracefully.", nil)
		a.closeResources()
	}()

	a.logger.Info("Application is starting...", nil)
	go a.session.Run(appCtx)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	replDone := make(chan error, 1)
	if a.console != nil {
		go func() {
			replDone <- a.console.Run(appCtx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
		return err
	case err := <-replDone:
		if err != nil {
			a.logger.Error("Console stopped with error", err, nil)
			return err
		}
		a.logger.Info("Console closed by user", nil)
	}
	return nil
}

// closeResources освобождает внешние подключения. Безопасно вызывать
// для частично собранного приложения.
func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ publisher", err, nil)
		}
	}
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent может быть уже недоступен, пишем в stdout
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
