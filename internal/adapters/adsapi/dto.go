package adsapi

import (
	"time"

	"moderation-console/internal/core/domain"
)

// DTO ответа API модерации. Поля совпадают с JSON сервера.
type sellerResponse struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Rating       string    `json:"rating"`
	TotalAds     int       `json:"totalAds"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type moderationEntryResponse struct {
	ID            int       `json:"id"`
	ModeratorID   int       `json:"moderatorId"`
	ModeratorName string    `json:"moderatorName"`
	Action        string    `json:"action"`
	Reason        *string   `json:"reason"`
	Comment       *string   `json:"comment"`
	Timestamp     time.Time `json:"timestamp"`
}

type adResponse struct {
	ID                int                       `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Price             float64                   `json:"price"`
	Category          string                    `json:"category"`
	CategoryID        int                       `json:"categoryId"`
	Status            string                    `json:"status"`
	Priority          string                    `json:"priority"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
	Images            []string                  `json:"images"`
	Seller            sellerResponse            `json:"seller"`
	Characteristics   map[string]string         `json:"characteristics"`
	ModerationHistory []moderationEntryResponse `json:"moderationHistory"`
}

type paginationResponse struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type adsPageResponse struct {
	Ads        []adResponse       `json:"ads"`
	Pagination paginationResponse `json:"pagination"`
}

type newCountResponse struct {
	NewCount int `json:"newCount"`
}

// DTO тела reject и request-changes
type decisionRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

func (dto adResponse) toDomain() domain.Ad {
	ad := domain.Ad{
		ID:              dto.ID,
		Title:           dto.Title,
		Description:     dto.Description,
		Price:           dto.Price,
		Category:        dto.Category,
		CategoryID:      dto.CategoryID,
		Status:          domain.Status(dto.Status),
		Priority:        domain.Priority(dto.Priority),
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
		Images:          dto.Images,
		Characteristics: dto.Characteristics,
		Seller: domain.Seller{
			ID:           dto.Seller.ID,
			Name:         dto.Seller.Name,
			Rating:       dto.Seller.Rating,
			TotalAds:     dto.Seller.TotalAds,
			RegisteredAt: dto.Seller.RegisteredAt,
		},
	}
	if len(dto.ModerationHistory) > 0 {
		ad.ModerationHistory = make([]domain.ModerationEntry, len(dto.ModerationHistory))
		for i, h := range dto.ModerationHistory {
			ad.ModerationHistory[i] = domain.ModerationEntry{
				ID:            h.ID,
				ModeratorID:   h.ModeratorID,
				ModeratorName: h.ModeratorName,
				Action:        domain.Status(h.Action),
				Reason:        deref(h.Reason),
				Comment:       deref(h.Comment),
				Timestamp:     h.Timestamp,
			}
		}
	}
	return ad
}

func (dto adsPageResponse) toDomain(fetchedAt time.Time) domain.AdsPage {
	items := make([]domain.Ad, len(dto.Ads))
	for i, a := range dto.Ads {
		items[i] = a.toDomain()
	}
	return domain.AdsPage{
		Items: items,
		Pagination: domain.Pagination{
			CurrentPage:  dto.Pagination.CurrentPage,
			TotalPages:   dto.Pagination.TotalPages,
			TotalItems:   dto.Pagination.TotalItems,
			ItemsPerPage: dto.Pagination.ItemsPerPage,
		},
		FetchedAt: fetchedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
