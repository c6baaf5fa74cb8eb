package port

import (
	"context"

	"moderation-console/internal/core/domain"
)

// ModerationEventsPort публикует события аудита модерации во внешнюю шину.
type ModerationEventsPort interface {
	PublishModerationEvent(ctx context.Context, event domain.ModerationEvent) error
}
