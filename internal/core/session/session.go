// Package session собирает ядро синхронизации списка в один цикл событий.
// Все изменяемое состояние принадлежит горутине Run; публичные методы
// ставят функцию в очередь цикла и ждут ее выполнения.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/debounce"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/port/usecases_port"
	"moderation-console/internal/core/preferences"
	"moderation-console/internal/core/querycache"
	"moderation-console/internal/core/selection"
	"moderation-console/internal/core/urlsync"
	"moderation-console/internal/core/watcher"
)

// Config - параметры поведения сессии.
type Config struct {
	PageSize      int
	DebounceDelay time.Duration
	PollInterval  time.Duration
	PollGrace     time.Duration
}

// DefaultConfig повторяет поведение веб-клиента модерации.
func DefaultConfig() Config {
	return Config{
		PageSize:      domain.DefaultPageSize,
		DebounceDelay: debounce.DefaultDelay,
		PollInterval:  watcher.DefaultInterval,
		PollGrace:     watcher.DefaultGrace,
	}
}

// Deps - внешние зависимости сессии. Notifier и Logger необязательны.
type Deps struct {
	ListAds   usecases_port.ListAdsUseCase
	AdDetails usecases_port.GetAdDetailsUseCase
	Moderate  usecases_port.ModerateAdUseCase
	Bulk      usecases_port.BulkModerationUseCase
	NewCount  watcher.PollFunc
	Presets   *preferences.PresetStore
	History   port.HistoryPort
	Clock     port.ClockPort
	Notifier  port.NotifierPort
	Logger    port.LoggerPort
}

type Session struct {
	id     string
	cfg    Config
	deps   Deps
	logger port.LoggerPort

	ctx    context.Context
	cancel context.CancelFunc
	events chan func()
	done   chan struct{}

	// Поля ниже используются только в цикле событий.
	sync      *urlsync.Sync
	inputs    *debounce.Coordinator
	pages     *querycache.Cache[domain.AdsPage]
	ads       *querycache.Cache[domain.Ad]
	selection *selection.Manager
	watcher   *watcher.Watcher
	tick      port.Timer

	committedKey string
	displayedKey string
	current      domain.AdsPage
	hasPage      bool
	lastErr      error

	subscribers map[int]func(View)
	nextSubID   int
}

// New создает сессию. Состояние фильтров восстанавливается из deps.History.
// Сессия начинает работу после вызова Run.
func New(cfg Config, deps Deps) *Session {
	def := DefaultConfig()
	if cfg.PageSize < 1 {
		cfg.PageSize = def.PageSize
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollGrace < 0 {
		cfg.PollGrace = def.PollGrace
	}
	if deps.Logger == nil {
		deps.Logger = contextkeys.NoopLogger()
	}

	id := uuid.New().String()
	logger := deps.Logger.WithFields(port.Fields{"component": "Session", "session_id": id})
	ctx, cancel := context.WithCancel(contextkeys.ContextWithLogger(context.Background(), logger))

	s := &Session{
		id:          id,
		cfg:         cfg,
		deps:        deps,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan func(), 256),
		done:        make(chan struct{}),
		selection:   selection.NewManager(),
		subscribers: make(map[int]func(View)),
	}
	s.sync = urlsync.NewSync(deps.History)
	s.sync.Subscribe(s.onStateChanged)
	s.inputs = debounce.New(cfg.DebounceDelay, deps.Clock, s.post, s.onInputCommitted)
	s.pages = querycache.New(ctx, s.post, deps.Clock.Now, s.onPageLoaded)
	s.ads = querycache.New[domain.Ad](ctx, s.post, deps.Clock.Now, nil)
	s.watcher = watcher.New(ctx, deps.NewCount, s.post, deps.Clock.Now, cfg.PollGrace)
	s.watcher.Subscribe(s.onWatcherChanged)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Done закрывается после остановки цикла событий.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run обрабатывает события до отмены ctx.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		s.inputs.Stop()
		if s.tick != nil {
			s.tick.Stop()
		}
		s.cancel()
		close(s.done)
		s.logger.Info("Session stopped", nil)
	}()

	s.logger.Info("Session started", port.Fields{"query": s.sync.Query()})
	s.resyncInputs()
	s.refresh()
	s.scheduleTick()

	for {
		select {
		case fn := <-s.events:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// post ставит функцию в очередь цикла. После остановки сессии функция отбрасывается.
func (s *Session) post(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	}
}

// do выполняет fn в цикле событий и ждет завершения.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case s.events <- wrapped:
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) scheduleTick() {
	s.tick = s.deps.Clock.AfterFunc(s.cfg.PollInterval, func() {
		s.post(func() {
			s.watcher.Tick()
			s.scheduleTick()
		})
	})
}

// requestContext дополняет контекст вызова логгером сессии и trace_id.
func (s *Session) requestContext(ctx context.Context) context.Context {
	logger := contextkeys.LoggerFromContextOr(ctx, s.logger)
	ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"session_id": s.id}))
	ctx, _ = contextkeys.EnsureTraceID(ctx)
	return ctx
}

func (s *Session) notify(level, message string) {
	if s.deps.Notifier == nil {
		return
	}
	s.deps.Notifier.Notify(s.ctx, port.SessionEvent{
		Type: port.EventNotification,
		Data: port.Notification{Level: level, Message: message},
	})
}
