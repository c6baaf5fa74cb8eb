// Package repl - терминальная консоль модератора поверх сессии.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/preferences"
	"moderation-console/internal/core/session"
)

// LineReader - источник строк ввода. В рабочем режиме это liner.State.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// ThemeService - режим темы оформления.
type ThemeService interface {
	Mode(ctx context.Context) (preferences.Theme, error)
	Set(ctx context.Context, mode preferences.Theme) error
	Toggle(ctx context.Context) (preferences.Theme, error)
}

var errQuit = errors.New("quit")

// REPL - интерактивный цикл команд. Уведомления сессии копятся и
// печатаются перед следующим приглашением.
type REPL struct {
	console     session.Console
	theme       ThemeService
	out         io.Writer
	in          LineReader
	historyPath string

	mu      sync.Mutex
	pending []string
}

var _ port.NotifierPort = (*REPL)(nil)

func New(console session.Console, theme ThemeService, out io.Writer, historyPath string) *REPL {
	if out == nil {
		out = os.Stdout
	}
	return &REPL{console: console, theme: theme, out: out, historyPath: historyPath}
}

// Attach задает сессию, если REPL создан раньше нее: REPL нужен сессии
// как получатель уведомлений.
func (r *REPL) Attach(console session.Console) {
	r.console = console
}

// Notify принимает уведомления сессии. Снимки view игнорируются:
// консоль перерисовывает список по команде.
func (r *REPL) Notify(_ context.Context, event port.SessionEvent) {
	var line string
	switch data := event.Data.(type) {
	case port.Notification:
		line = fmt.Sprintf("[%s] %s", data.Level, data.Message)
	case session.NewItemsEvent:
		if !data.ShowLoadNew {
			return
		}
		line = fmt.Sprintf("Новых объявлений: %d (команда new)", data.Count)
	default:
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, line)
	r.mu.Unlock()
}

func (r *REPL) flushNotifications() {
	r.mu.Lock()
	lines := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
}

// Run запускает цикл чтения команд до quit, Ctrl+C или Ctrl+D.
func (r *REPL) Run(ctx context.Context) error {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completer)

	if r.historyPath != "" {
		if f, err := os.Open(r.historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	defer r.saveHistory(state)

	r.in = state
	fmt.Fprintln(r.out, "Консоль модерации. Введите help для списка команд.")
	r.printView(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.flushNotifications()

		line, err := state.Prompt("moderation> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			state.AppendHistory(line)
		}
		if err := r.Execute(ctx, line); errors.Is(err, errQuit) {
			return nil
		}
	}
}

func (r *REPL) saveHistory(state *liner.State) {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Create(r.historyPath); err == nil {
		_, _ = state.WriteHistory(f)
		f.Close()
	}
}

var commands = []string{
	"help", "quit", "view", "search", "/", "min", "max", "status", "category", "sort",
	"page", "next", "prev", "reset", "back", "forward", "nav", "sel", "all", "clear", "esc",
	"a", "d", "rc", "new", "presets", "preset", "ad", "approve", "reject", "changes", "theme",
}

func completer(line string) []string {
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

// Execute выполняет одну команду. Ошибки печатаются, а не возвращаются;
// возвращается только errQuit.
func (r *REPL) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	// "/текст" - поиск, как горячая клавиша "/" в веб-клиенте
	if strings.HasPrefix(line, "/") {
		line = "search " + strings.TrimPrefix(line, "/")
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	var err error
	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		r.printHelp()
		return nil
	case "view", "ls":
		// только перерисовка
	case "search":
		err = r.search(ctx, rest)
	case "min":
		err = r.price(ctx, r.console.SetMinPriceInput, args)
	case "max":
		err = r.price(ctx, r.console.SetMaxPriceInput, args)
	case "status":
		err = r.statuses(ctx, args)
	case "category":
		err = r.category(ctx, args)
	case "sort":
		err = r.sort(ctx, args)
	case "page":
		err = r.page(ctx, args)
	case "next", "prev":
		err = r.step(ctx, strings.ToLower(cmd) == "next")
	case "reset":
		err = r.console.ResetFilters(ctx)
	case "back":
		err = r.move(ctx, r.console.Back)
	case "forward":
		err = r.move(ctx, r.console.Forward)
	case "nav":
		err = r.console.Navigate(ctx, rest)
	case "sel":
		err = r.toggle(ctx, args)
	case "all":
		err = r.console.SelectAllOnPage(ctx)
	case "clear", "esc":
		err = r.console.ClearSelection(ctx)
	case "a":
		err = r.bulk(ctx, domain.ActionApprove, rest)
	case "d":
		err = r.bulk(ctx, domain.ActionReject, rest)
	case "rc":
		err = r.bulk(ctx, domain.ActionRequestChanges, rest)
	case "new":
		err = r.console.LoadNew(ctx)
	case "presets":
		err = r.listPresets(ctx)
		if err == nil {
			return nil
		}
	case "preset":
		err = r.preset(ctx, args, rest)
	case "ad":
		err = r.showAd(ctx, args)
		if err == nil {
			return nil
		}
	case "approve", "reject", "changes":
		err = r.moderateOne(ctx, strings.ToLower(cmd), args)
	case "theme":
		err = r.setTheme(ctx, args)
		if err == nil {
			return nil
		}
	default:
		fmt.Fprintf(r.out, "Неизвестная команда: %s (help - список команд)\n", cmd)
		return nil
	}

	if err != nil {
		fmt.Fprintf(r.out, "Ошибка: %v\n", err)
		return nil
	}
	r.printView(ctx)
	return nil
}
