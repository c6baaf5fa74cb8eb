package usecases_port

import (
	"context"

	"moderation-console/internal/core/domain"
)

type BulkModerationUseCase interface {
	Execute(ctx context.Context, action domain.ModerationAction, ids []int, known map[int]domain.Status, decision domain.Decision) (domain.BulkResult, error)
}
