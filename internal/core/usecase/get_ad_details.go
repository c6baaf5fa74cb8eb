package usecase

import (
	"context"
	"fmt"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
)

type GetAdDetailsUseCase struct {
	api port.AdsAPIPort
}

func NewGetAdDetailsUseCase(api port.AdsAPIPort) *GetAdDetailsUseCase {
	return &GetAdDetailsUseCase{api: api}
}

func (uc *GetAdDetailsUseCase) Execute(ctx context.Context, id int) (domain.Ad, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetAdDetails",
		"ad_id":    id,
	})
	ucLogger.Debug("Use case started", nil)

	if id <= 0 {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	ad, err := uc.api.GetAd(ctx, id)
	if err != nil {
		ucLogger.Error("Failed to get ad", err, nil)
		return domain.Ad{}, fmt.Errorf("could not get ad %d: %w", id, err)
	}

	ucLogger.Debug("Use case finished successfully", nil)
	return ad, nil
}
