package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
)

// DefaultBulkConcurrency - сколько запросов массовой операции выполняется одновременно.
const DefaultBulkConcurrency = 8

type BulkModerationUseCase struct {
	api         port.AdsAPIPort
	events      port.ModerationEventsPort
	concurrency int
	now         func() time.Time
}

// NewBulkModerationUseCase создает use case. events может быть nil, если аудит отключен.
func NewBulkModerationUseCase(api port.AdsAPIPort, events port.ModerationEventsPort, concurrency int) *BulkModerationUseCase {
	if concurrency < 1 {
		concurrency = DefaultBulkConcurrency
	}
	return &BulkModerationUseCase{
		api:         api,
		events:      events,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (uc *BulkModerationUseCase) Approve(ctx context.Context, ids []int, known map[int]domain.Status) (domain.BulkResult, error) {
	return uc.Execute(ctx, domain.ActionApprove, ids, known, domain.Decision{})
}

func (uc *BulkModerationUseCase) Reject(ctx context.Context, ids []int, known map[int]domain.Status, reason, comment string) (domain.BulkResult, error) {
	return uc.Execute(ctx, domain.ActionReject, ids, known, domain.Decision{Reason: reason, Comment: comment})
}

func (uc *BulkModerationUseCase) RequestChanges(ctx context.Context, ids []int, known map[int]domain.Status, reason, comment string) (domain.BulkResult, error) {
	return uc.Execute(ctx, domain.ActionRequestChanges, ids, known, domain.Decision{Reason: reason, Comment: comment})
}

// Execute отправляет по одному запросу на каждое объявление, статус которого
// отличается от целевого. Объявления без известного статуса (с других страниц)
// считаются подходящими. Ошибки отдельных запросов не прерывают остальные,
// ошибка возвращается только для некорректных параметров.
func (uc *BulkModerationUseCase) Execute(ctx context.Context, action domain.ModerationAction, ids []int, known map[int]domain.Status, decision domain.Decision) (domain.BulkResult, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "BulkModeration",
		"action":   string(action),
	})
	ucLogger.Info("Use case started", port.Fields{"selected_count": len(ids)})

	decision, err := validateDecision(action, decision)
	if err != nil {
		ucLogger.Warn("Invalid bulk moderation request", port.Fields{"error": err.Error()})
		return domain.BulkResult{Action: action}, err
	}

	result := partition(action, ids, known)
	if len(result.Eligible) == 0 {
		ucLogger.Info("Nothing eligible, no requests issued", port.Fields{"skipped_count": len(result.Skipped)})
		return result, nil
	}

	errs := make([]error, len(result.Eligible))
	var g errgroup.Group
	g.SetLimit(uc.concurrency)
	for i, id := range result.Eligible {
		g.Go(func() error {
			errs[i] = uc.api.Moderate(ctx, id, action, decision)
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range result.Eligible {
		if errs[i] != nil {
			ucLogger.Warn("Moderation request failed", port.Fields{"ad_id": id, "error": errs[i].Error()})
			result.Failed = append(result.Failed, domain.BulkFailure{ID: id, Err: errs[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	uc.publish(ctx, ucLogger, domain.EventFromBulk(result, decision, uc.now()))

	ucLogger.Info("Use case finished", port.Fields{
		"outcome":         string(result.Outcome()),
		"eligible_count":  len(result.Eligible),
		"skipped_count":   len(result.Skipped),
		"succeeded_count": len(result.Succeeded),
		"failed_count":    len(result.Failed),
	})
	return result, nil
}

func (uc *BulkModerationUseCase) publish(ctx context.Context, logger port.LoggerPort, event domain.ModerationEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishModerationEvent(ctx, event); err != nil {
		logger.Error("Failed to publish moderation event", err, nil)
	}
}

// partition делит выбор на подходящие и пропущенные объявления.
// Повторяющиеся id учитываются один раз.
func partition(action domain.ModerationAction, ids []int, known map[int]domain.Status) domain.BulkResult {
	target := action.TargetStatus()
	result := domain.BulkResult{Action: action}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if status, ok := known[id]; ok && status == target {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Eligible = append(result.Eligible, id)
	}
	return result
}
