package usecase

import (
	"context"
	"fmt"
	"time"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
)

// ModerateAdUseCase - действие над одним объявлением со страницы деталей.
type ModerateAdUseCase struct {
	api    port.AdsAPIPort
	events port.ModerationEventsPort
	now    func() time.Time
}

func NewModerateAdUseCase(api port.AdsAPIPort, events port.ModerationEventsPort) *ModerateAdUseCase {
	return &ModerateAdUseCase{api: api, events: events, now: time.Now}
}

func (uc *ModerateAdUseCase) Execute(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ModerateAd",
		"ad_id":    id,
		"action":   string(action),
	})
	ucLogger.Info("Use case started", nil)

	decision, err := validateDecision(action, decision)
	if err != nil {
		return err
	}

	event := domain.ModerationEvent{
		Action:     action,
		Reason:     decision.Reason,
		Comment:    decision.Comment,
		OccurredAt: uc.now(),
	}
	err = uc.api.Moderate(ctx, id, action, decision)
	if err != nil {
		event.Failed = []int{id}
	} else {
		event.Succeeded = []int{id}
	}
	if uc.events != nil {
		if pubErr := uc.events.PublishModerationEvent(ctx, event); pubErr != nil {
			ucLogger.Error("Failed to publish moderation event", pubErr, nil)
		}
	}
	if err != nil {
		ucLogger.Error("Moderation request failed", err, nil)
		return fmt.Errorf("could not %s ad %d: %w", action, id, err)
	}

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
