package usecases_port

import (
	"context"

	"moderation-console/internal/core/domain"
)

type ListAdsUseCase interface {
	Execute(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error)
}
