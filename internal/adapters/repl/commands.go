package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/preferences"
)

var errUsage = errors.New("неверные аргументы, см. help")

// search фиксирует поиск сразу: в терминале ввод построчный, ждать паузы незачем.
func (r *REPL) search(ctx context.Context, text string) error {
	if err := r.console.SetSearchInput(ctx, text); err != nil {
		return err
	}
	return r.console.FlushInputs(ctx)
}

func (r *REPL) price(ctx context.Context, set func(context.Context, string) error, args []string) error {
	raw := ""
	if len(args) > 0 && args[0] != "-" {
		raw = args[0]
	}
	if err := set(ctx, raw); err != nil {
		return err
	}
	return r.console.FlushInputs(ctx)
}

func (r *REPL) statuses(ctx context.Context, args []string) error {
	var statuses []domain.Status
	for _, a := range args {
		if a == "-" {
			statuses = nil
			break
		}
		s := domain.Status(strings.ToLower(a))
		if !s.IsValid() {
			return fmt.Errorf("неизвестный статус %q", a)
		}
		statuses = append(statuses, s)
	}
	return r.console.SetStatuses(ctx, statuses)
}

func (r *REPL) category(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-" {
		return r.console.SetCategory(ctx, nil)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return r.console.SetCategory(ctx, &id)
}

func (r *REPL) sort(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, ok := domain.ParseSort(args[0])
	if !ok {
		return fmt.Errorf("неизвестная сортировка %q", args[0])
	}
	return r.console.SetSort(ctx, s)
}

func (r *REPL) page(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return errUsage
	}
	return r.console.SetPage(ctx, n)
}

func (r *REPL) step(ctx context.Context, forward bool) error {
	v, err := r.console.View(ctx)
	if err != nil {
		return err
	}
	page := v.State.Page
	if forward {
		if !v.HasNextPage {
			return errors.New("это последняя страница")
		}
		page++
	} else {
		if page <= 1 {
			return errors.New("это первая страница")
		}
		page--
	}
	return r.console.SetPage(ctx, page)
}

func (r *REPL) move(ctx context.Context, fn func(context.Context) (bool, error)) error {
	moved, err := fn(ctx)
	if err != nil {
		return err
	}
	if !moved {
		return errors.New("история пуста")
	}
	return nil
}

func (r *REPL) toggle(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("неверный id %q", a)
		}
		if err := r.console.Toggle(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// parseDecision разбирает "причина [-- комментарий]". Причину можно указать
// номером из списка reasons.
func parseDecision(rest string) domain.Decision {
	reason, comment, _ := strings.Cut(rest, "--")
	reason = strings.TrimSpace(reason)
	if n, err := strconv.Atoi(reason); err == nil && n >= 1 && n <= len(domain.RejectionReasons) {
		reason = domain.RejectionReasons[n-1]
	}
	return domain.Decision{Reason: reason, Comment: strings.TrimSpace(comment)}
}

// askReason спрашивает причину, если она не указана в команде.
func (r *REPL) askReason(rest string) (domain.Decision, error) {
	d := parseDecision(rest)
	if d.Reason != "" || r.in == nil {
		return d, nil
	}
	r.printReasons()
	line, err := r.in.Prompt("Причина (номер или текст): ")
	if err != nil {
		return d, err
	}
	return parseDecision(line), nil
}

func (r *REPL) bulk(ctx context.Context, action domain.ModerationAction, rest string) error {
	var (
		res domain.BulkResult
		err error
	)
	switch action {
	case domain.ActionApprove:
		res, err = r.console.BulkApprove(ctx)
	case domain.ActionReject, domain.ActionRequestChanges:
		d, askErr := r.askReason(rest)
		if askErr != nil {
			return askErr
		}
		if action == domain.ActionReject {
			res, err = r.console.BulkReject(ctx, d.Reason, d.Comment)
		} else {
			res, err = r.console.BulkRequestChanges(ctx, d.Reason, d.Comment)
		}
	}
	if err != nil {
		return err
	}
	r.printBulk(res)
	return nil
}

func (r *REPL) listPresets(ctx context.Context) error {
	names, err := r.console.ListPresets(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(r.out, "Пресетов нет")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(r.out, "  %s\n", name)
	}
	return nil
}

func (r *REPL) preset(ctx context.Context, args []string, rest string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	switch args[0] {
	case "save":
		return r.console.SavePreset(ctx, name)
	case "load":
		return r.console.LoadPreset(ctx, name)
	case "rm", "delete":
		return r.console.DeletePreset(ctx, name)
	case "clear":
		return r.console.ClearPresets(ctx)
	}
	return errUsage
}

func (r *REPL) showAd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	ad, err := r.console.AdDetails(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "#%d %s\n", ad.ID, ad.Title)
	fmt.Fprintf(r.out, "  Цена: %s  Категория: %s  Статус: %s  Приоритет: %s\n",
		domain.FormatNumber(ad.Price), ad.Category, ad.Status, ad.Priority)
	fmt.Fprintf(r.out, "  Продавец: %s (рейтинг %s, объявлений %d)\n", ad.Seller.Name, ad.Seller.Rating, ad.Seller.TotalAds)
	if ad.Description != "" {
		fmt.Fprintf(r.out, "  %s\n", ad.Description)
	}
	for _, h := range ad.ModerationHistory {
		line := fmt.Sprintf("  %s %s: %s", h.Timestamp.Format("2006-01-02 15:04"), h.ModeratorName, h.Action)
		if h.Reason != "" {
			line += " (" + h.Reason + ")"
		}
		fmt.Fprintln(r.out, line)
	}
	return nil
}

func (r *REPL) moderateOne(ctx context.Context, cmd string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	if cmd == "approve" {
		return r.console.ApproveAd(ctx, id)
	}
	d, err := r.askReason(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if cmd == "reject" {
		return r.console.RejectAd(ctx, id, d.Reason, d.Comment)
	}
	return r.console.RequestChangesAd(ctx, id, d.Reason, d.Comment)
}

func (r *REPL) setTheme(ctx context.Context, args []string) error {
	if r.theme == nil {
		return errors.New("тема недоступна")
	}
	var (
		mode preferences.Theme
		err  error
	)
	switch {
	case len(args) == 0:
		mode, err = r.theme.Mode(ctx)
	case args[0] == "toggle":
		mode, err = r.theme.Toggle(ctx)
	case args[0] == string(preferences.ThemeLight) || args[0] == string(preferences.ThemeDark):
		mode = preferences.Theme(args[0])
		err = r.theme.Set(ctx, mode)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Тема: %s\n", mode)
	return nil
}

func (r *REPL) printView(ctx context.Context) {
	v, err := r.console.View(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Ошибка: %v\n", err)
		return
	}

	query := v.Query
	if query == "" {
		query = "(без фильтров)"
	}
	fmt.Fprintf(r.out, "Фильтр: %s\n", query)

	switch {
	case v.Loading:
		fmt.Fprintln(r.out, "Загрузка...")
		return
	case v.Error != "" && len(v.Items) == 0:
		fmt.Fprintf(r.out, "Ошибка загрузки: %s\n", v.Error)
		return
	case len(v.Items) == 0:
		fmt.Fprintln(r.out, "Объявлений не найдено")
		return
	}

	selected := make(map[int]bool, len(v.Selected))
	for _, id := range v.Selected {
		selected[id] = true
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tНАЗВАНИЕ\tЦЕНА\tСТАТУС\tПРИОРИТЕТ")
	for _, ad := range v.Items {
		mark := "[ ]"
		if selected[ad.ID] {
			mark = "[x]"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			mark, ad.ID, ad.Title, domain.FormatNumber(ad.Price), ad.Status, ad.Priority)
	}
	tw.Flush()

	status := fmt.Sprintf("Страница %d из %d, всего %d", v.Pagination.CurrentPage, v.Pagination.TotalPages, v.Pagination.TotalItems)
	if len(v.Selected) > 0 {
		status += fmt.Sprintf(", выбрано %d", len(v.Selected))
	}
	if v.Refreshing {
		status += ", обновление..."
	}
	fmt.Fprintln(r.out, status)
	if v.ShowLoadNew {
		fmt.Fprintf(r.out, "Новых объявлений: %d (команда new)\n", v.NewCount)
	}
}

func (r *REPL) printBulk(res domain.BulkResult) {
	switch res.Outcome() {
	case domain.OutcomeNothingEligible:
		fmt.Fprintln(r.out, "Нет объявлений, к которым применимо действие")
	case domain.OutcomeSucceeded:
		fmt.Fprintf(r.out, "Готово: %d\n", len(res.Succeeded))
	default:
		fmt.Fprintf(r.out, "Готово: %d, ошибок: %d %v\n", len(res.Succeeded), len(res.Failed), res.FailedIDs())
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(r.out, "Пропущено: %v\n", res.Skipped)
	}
}

func (r *REPL) printReasons() {
	for i, reason := range domain.RejectionReasons {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, reason)
	}
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `Команды:
  view                      показать список
  /текст | search текст     поиск (от 3 символов)
  min N | max N             границы цены, "-" сбрасывает
  status S...               статусы: pending approved rejected draft, "-" сбрасывает
  category ID               категория, "-" сбрасывает
  sort поле_направление     priority|price|createdAt _ asc|desc
  page N | next | prev      пагинация
  reset                     сбросить фильтры
  back | forward            история навигации
  nav запрос                открыть строку запроса
  sel ID...                 отметить объявления
  all                       отметить всю страницу
  esc | clear               снять выделение
  a                         одобрить выбранные
  d [причина] [-- коммент]  отклонить выбранные
  rc [причина] [-- коммент] вернуть выбранные на доработку
  new                       загрузить новые объявления
  presets                   список пресетов
  preset save|load|rm NAME  пресеты фильтров
  preset clear              удалить все пресеты
  ad ID                     карточка объявления
  approve ID                одобрить объявление
  reject ID [причина]       отклонить объявление
  changes ID [причина]      вернуть на доработку
  theme [light|dark|toggle] тема оформления
  quit                      выход
`)
}
