package usecase

import (
	"context"
	"fmt"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
)

// ListAdsUseCase загружает страницу списка по дескриптору.
type ListAdsUseCase struct {
	api port.AdsAPIPort
}

func NewListAdsUseCase(api port.AdsAPIPort) *ListAdsUseCase {
	return &ListAdsUseCase{api: api}
}

func (uc *ListAdsUseCase) Execute(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ListAds",
		"key":      d.Key(),
	})
	ucLogger.Debug("Use case started", nil)

	page, err := uc.api.ListAds(ctx, d)
	if err != nil {
		ucLogger.Warn("Failed to load ads page", port.Fields{"error": err.Error()})
		return domain.AdsPage{}, fmt.Errorf("could not load ads page %d: %w", d.Page, err)
	}

	ucLogger.Debug("Use case finished successfully", port.Fields{"items_count": len(page.Items)})
	return page, nil
}
