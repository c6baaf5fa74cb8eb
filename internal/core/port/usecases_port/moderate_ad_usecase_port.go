package usecases_port

import (
	"context"

	"moderation-console/internal/core/domain"
)

type ModerateAdUseCase interface {
	Execute(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error
}
