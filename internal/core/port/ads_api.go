package port

import (
	"context"
	"time"

	"moderation-console/internal/core/domain"
)

// AdsAPIPort - контракт клиента REST API модерации.
type AdsAPIPort interface {
	// ListAds загружает одну страницу списка по дескриптору.
	ListAds(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error)
	// GetAd загружает объявление целиком. Для несуществующего id - domain.ErrAdNotFound.
	GetAd(ctx context.Context, id int) (domain.Ad, error)
	// Moderate выполняет одно действие модератора над одним объявлением.
	Moderate(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error
	// NewCount возвращает число объявлений, созданных строго позже since.
	NewCount(ctx context.Context, since time.Time) (int, error)
}
