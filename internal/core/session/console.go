package session

import (
	"context"

	"moderation-console/internal/core/domain"
)

// Console - операции сессии, доступные внешним интерфейсам (REST, консоль).
type Console interface {
	View(ctx context.Context) (View, error)
	Subscribe(ctx context.Context, fn func(View)) (func(), error)

	SetSearchInput(ctx context.Context, raw string) error
	SetMinPriceInput(ctx context.Context, raw string) error
	SetMaxPriceInput(ctx context.Context, raw string) error
	FlushInputs(ctx context.Context) error

	SetStatuses(ctx context.Context, statuses []domain.Status) error
	SetCategory(ctx context.Context, categoryID *int) error
	SetSort(ctx context.Context, sort domain.Sort) error
	SetPage(ctx context.Context, page int) error
	ResetFilters(ctx context.Context) error
	Navigate(ctx context.Context, query string) error
	Back(ctx context.Context) (bool, error)
	Forward(ctx context.Context) (bool, error)

	Toggle(ctx context.Context, id int) error
	SelectAllOnPage(ctx context.Context) error
	ClearSelection(ctx context.Context) error

	BulkApprove(ctx context.Context) (domain.BulkResult, error)
	BulkReject(ctx context.Context, reason, comment string) (domain.BulkResult, error)
	BulkRequestChanges(ctx context.Context, reason, comment string) (domain.BulkResult, error)
	LoadNew(ctx context.Context) error

	SavePreset(ctx context.Context, name string) error
	LoadPreset(ctx context.Context, name string) error
	ListPresets(ctx context.Context) ([]string, error)
	DeletePreset(ctx context.Context, name string) error
	ClearPresets(ctx context.Context) error

	AdDetails(ctx context.Context, id int) (domain.Ad, error)
	ApproveAd(ctx context.Context, id int) error
	RejectAd(ctx context.Context, id int, reason, comment string) error
	RequestChangesAd(ctx context.Context, id int, reason, comment string) error
}

var _ Console = (*Session)(nil)
