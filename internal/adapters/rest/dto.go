package rest

import (
	"time"

	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"
	"moderation-console/internal/core/session"
)

// --- Запросы ---

type inputRequest struct {
	Value string `json:"value"`
}

type statusesRequest struct {
	Statuses []domain.Status `json:"statuses"`
}

type categoryRequest struct {
	CategoryID *int `json:"categoryId"`
}

type sortRequest struct {
	Sort string `json:"sort"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type navigateRequest struct {
	Query string `json:"query"`
}

type decisionRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}

type themeRequest struct {
	Mode string `json:"mode"`
}

// --- Ответы ---

type filterStateResponse struct {
	Search     string          `json:"search"`
	Statuses   []domain.Status `json:"statuses"`
	CategoryID *int            `json:"categoryId"`
	MinPrice   *float64        `json:"minPrice"`
	MaxPrice   *float64        `json:"maxPrice"`
	Sort       string          `json:"sort"`
	Page       int             `json:"page"`
	IsDefault  bool            `json:"isDefaultView"`
}

type inputsResponse struct {
	Search   string `json:"search"`
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
}

type adCardResponse struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	Image     string    `json:"image,omitempty"`
	Selected  bool      `json:"selected"`
}

type paginationResponse struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type selectionResponse struct {
	IDs               []int `json:"ids"`
	AllOnPageSelected bool  `json:"allOnPageSelected"`
	Indeterminate     bool  `json:"indeterminate"`
}

type newItemsResponse struct {
	Count       int    `json:"count"`
	State       string `json:"state"`
	ShowLoadNew bool   `json:"showLoadNew"`
}

type viewResponse struct {
	Query       string              `json:"query"`
	State       filterStateResponse `json:"state"`
	Inputs      inputsResponse      `json:"inputs"`
	Items       []adCardResponse    `json:"items"`
	Pagination  paginationResponse  `json:"pagination"`
	Loading     bool                `json:"loading"`
	Refreshing  bool                `json:"refreshing"`
	HasNextPage bool                `json:"hasNextPage"`
	Error       string              `json:"error,omitempty"`
	Selection   selectionResponse   `json:"selection"`
	NewItems    newItemsResponse    `json:"newItems"`
}

type sellerResponse struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Rating       string    `json:"rating"`
	TotalAds     int       `json:"totalAds"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type historyEntryResponse struct {
	ID            int       `json:"id"`
	ModeratorID   int       `json:"moderatorId"`
	ModeratorName string    `json:"moderatorName"`
	Action        string    `json:"action"`
	Reason        string    `json:"reason,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type adDetailsResponse struct {
	ID                int                    `json:"id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	Price             float64                `json:"price"`
	Category          string                 `json:"category"`
	CategoryID        int                    `json:"categoryId"`
	Status            string                 `json:"status"`
	Priority          string                 `json:"priority"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
	Images            []string               `json:"images"`
	Seller            sellerResponse         `json:"seller"`
	Characteristics   map[string]string      `json:"characteristics"`
	ModerationHistory []historyEntryResponse `json:"moderationHistory"`
}

type bulkFailureResponse struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

type bulkResultResponse struct {
	Action    string                `json:"action"`
	Outcome   string                `json:"outcome"`
	Eligible  []int                 `json:"eligible"`
	Skipped   []int                 `json:"skipped"`
	Succeeded []int                 `json:"succeeded"`
	Failed    []bulkFailureResponse `json:"failed"`
}

type presetsResponse struct {
	Presets []string `json:"presets"`
}

type historyMoveResponse struct {
	Moved bool `json:"moved"`
}

type themeResponse struct {
	Mode string `json:"mode"`
}

type reasonsResponse struct {
	Reasons []string `json:"reasons"`
}

// --- Маппинг ---

func ints(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}

func toViewResponse(v session.View) viewResponse {
	selected := make(map[int]bool, len(v.Selected))
	for _, id := range v.Selected {
		selected[id] = true
	}

	items := make([]adCardResponse, len(v.Items))
	for i, ad := range v.Items {
		card := adCardResponse{
			ID:        ad.ID,
			Title:     ad.Title,
			Price:     ad.Price,
			Category:  ad.Category,
			Status:    string(ad.Status),
			Priority:  string(ad.Priority),
			CreatedAt: ad.CreatedAt,
			Selected:  selected[ad.ID],
		}
		if len(ad.Images) > 0 {
			card.Image = ad.Images[0]
		}
		items[i] = card
	}

	statuses := v.State.Statuses
	if statuses == nil {
		statuses = []domain.Status{}
	}

	return viewResponse{
		Query: v.Query,
		State: filterStateResponse{
			Search:     v.State.Search,
			Statuses:   statuses,
			CategoryID: v.State.CategoryID,
			MinPrice:   v.State.MinPrice,
			MaxPrice:   v.State.MaxPrice,
			Sort:       v.State.Sort.String(),
			Page:       v.State.Page,
			IsDefault:  v.State.IsDefaultView(),
		},
		Inputs: inputsResponse{
			Search:   v.SearchInput,
			MinPrice: v.MinPriceInput,
			MaxPrice: v.MaxPriceInput,
		},
		Items: items,
		Pagination: paginationResponse{
			CurrentPage:  v.Pagination.CurrentPage,
			TotalPages:   v.Pagination.TotalPages,
			TotalItems:   v.Pagination.TotalItems,
			ItemsPerPage: v.Pagination.ItemsPerPage,
		},
		Loading:     v.Loading,
		Refreshing:  v.Refreshing,
		HasNextPage: v.HasNextPage,
		Error:       v.Error,
		Selection: selectionResponse{
			IDs:               ints(v.Selected),
			AllOnPageSelected: v.AllOnPageSelected,
			Indeterminate:     v.Indeterminate,
		},
		NewItems: newItemsResponse{
			Count:       v.NewCount,
			State:       v.WatcherState.String(),
			ShowLoadNew: v.ShowLoadNew,
		},
	}
}

func toAdDetailsResponse(ad domain.Ad) adDetailsResponse {
	history := make([]historyEntryResponse, len(ad.ModerationHistory))
	for i, h := range ad.ModerationHistory {
		history[i] = historyEntryResponse{
			ID:            h.ID,
			ModeratorID:   h.ModeratorID,
			ModeratorName: h.ModeratorName,
			Action:        string(h.Action),
			Reason:        h.Reason,
			Comment:       h.Comment,
			Timestamp:     h.Timestamp,
		}
	}
	images := ad.Images
	if images == nil {
		images = []string{}
	}
	return adDetailsResponse{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Price:       ad.Price,
		Category:    ad.Category,
		CategoryID:  ad.CategoryID,
		Status:      string(ad.Status),
		Priority:    string(ad.Priority),
		CreatedAt:   ad.CreatedAt,
		UpdatedAt:   ad.UpdatedAt,
		Images:      images,
		Seller: sellerResponse{
			ID:           ad.Seller.ID,
			Name:         ad.Seller.Name,
			Rating:       ad.Seller.Rating,
			TotalAds:     ad.Seller.TotalAds,
			RegisteredAt: ad.Seller.RegisteredAt,
		},
		Characteristics:   ad.Characteristics,
		ModerationHistory: history,
	}
}

func toBulkResultResponse(r domain.BulkResult) bulkResultResponse {
	failed := make([]bulkFailureResponse, len(r.Failed))
	for i, f := range r.Failed {
		failed[i] = bulkFailureResponse{ID: f.ID}
		if f.Err != nil {
			failed[i].Error = f.Err.Error()
		}
	}
	return bulkResultResponse{
		Action:    string(r.Action),
		Outcome:   string(r.Outcome()),
		Eligible:  ints(r.Eligible),
		Skipped:   ints(r.Skipped),
		Succeeded: ints(r.Succeeded),
		Failed:    failed,
	}
}

// PresentEvent - Presenter для SSE: снимки сессии уходят в том же виде,
// что и ответ GET /api/v1/view.
func PresentEvent(event port.SessionEvent) interface{} {
	if v, ok := event.Data.(session.View); ok {
		return toViewResponse(v)
	}
	return event.Data
}
