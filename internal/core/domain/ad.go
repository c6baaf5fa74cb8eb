package domain

import "time"

// Status - статус объявления в процессе модерации.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDraft    Status = "draft"
)

// AllStatuses в порядке, в котором их показывает фильтр.
var AllStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusDraft}

// IsValid сообщает, известен ли статус.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDraft:
		return true
	}
	return false
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// Seller - продавец, разместивший объявление.
type Seller struct {
	ID           int
	Name         string
	Rating       string
	TotalAds     int
	RegisteredAt time.Time
}

// ModerationEntry - одна запись истории модерации.
type ModerationEntry struct {
	ID            int
	ModeratorID   int
	ModeratorName string
	Action        Status
	Reason        string
	Comment       string
	Timestamp     time.Time
}

// Ad - объявление в том виде, в каком его отдает API модерации.
type Ad struct {
	ID                int
	Title             string
	Description       string
	Price             float64
	Category          string
	CategoryID        int
	Status            Status
	Priority          Priority
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Images            []string
	Seller            Seller
	Characteristics   map[string]string
	ModerationHistory []ModerationEntry
}

// Pagination - метаданные страницы списка.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	TotalItems   int
	ItemsPerPage int
}

// AdsPage - одна загруженная страница списка (CachedPage).
type AdsPage struct {
	Items      []Ad
	Pagination Pagination
	FetchedAt  time.Time
}

// IDs возвращает идентификаторы объявлений страницы в порядке отображения.
func (p AdsPage) IDs() []int {
	ids := make([]int, len(p.Items))
	for i, ad := range p.Items {
		ids[i] = ad.ID
	}
	return ids
}

// StatusByID - последний известный статус каждого объявления на странице.
func (p AdsPage) StatusByID() map[int]Status {
	known := make(map[int]Status, len(p.Items))
	for _, ad := range p.Items {
		known[ad.ID] = ad.Status
	}
	return known
}

// LatestCreatedAt возвращает максимальный createdAt на странице.
// ok == false для пустой страницы.
func (p AdsPage) LatestCreatedAt() (latest time.Time, ok bool) {
	for _, ad := range p.Items {
		if !ok || ad.CreatedAt.After(latest) {
			latest = ad.CreatedAt
			ok = true
		}
	}
	return latest, ok
}

// Причины отклонения, которые предлагает форма модератора.
const (
	ReasonProhibitedItem = "Запрещенный товар"
	ReasonWrongCategory  = "Неверная категория"
	ReasonBadDescription = "Некорректное описание"
	ReasonPhotoProblems  = "Проблемы с фото"
	ReasonSuspectedFraud = "Подозрение на мошенничество"
	ReasonOther          = "Другое"
)

var RejectionReasons = []string{
	ReasonProhibitedItem,
	ReasonWrongCategory,
	ReasonBadDescription,
	ReasonPhotoProblems,
	ReasonSuspectedFraud,
	ReasonOther,
}
