package usecases_port

import (
	"context"

	"moderation-console/internal/core/domain"
)

type GetAdDetailsUseCase interface {
	Execute(ctx context.Context, id int) (domain.Ad, error)
}
