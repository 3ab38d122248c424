package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowstate-backend/internal/inbox/domain"
)

// ItemFilter narrows inbox listing queries. Zero values mean "no filter".
type ItemFilter struct {
	Platform        string
	Category        string
	ActionType      string
	UnreadOnly      bool
	ActionOnly      bool
	MinPriority     int
	IncludeArchived bool
	Limit           int
	Offset          int
}

type ItemRepository interface {
	Create(item *domain.Item) error
	Update(item *domain.Item) error
	FindByID(userID, id string) (*domain.Item, error)
	List(userID string, filter ItemFilter) ([]*domain.Item, error)
	ListUnenriched(limit int) ([]*domain.Item, error)
	ClaimForEnrichment(itemID string) (bool, error)
	SaveEnrichment(item *domain.Item, deadlines []*domain.Deadline) error
	TopUnread(userID string, since time.Time, limit int) ([]*domain.Item, error)
	EventsBetween(userID string, from, to time.Time) ([]*domain.Item, error)
	CountUnread(userID string) (int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(item *domain.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return r.db.Create(item).Error
}

func (r *itemRepository) Update(item *domain.Item) error {
	return r.db.Save(item).Error
}

func (r *itemRepository) FindByID(userID, id string) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(userID string, filter ItemFilter) ([]*domain.Item, error) {
	query := r.db.Where("user_id = ?", userID)

	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActionType != "" {
		query = query.Where("action_type = ?", filter.ActionType)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.ActionOnly {
		query = query.Where("action_required = ?", true)
	}
	if filter.MinPriority > 0 {
		query = query.Where("priority_score >= ?", filter.MinPriority)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var items []*domain.Item
	err := query.
		Order("priority_score DESC, received_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListUnenriched returns items the pipeline has not processed, newest
// first so fresh content is enriched before the backlog.
func (r *itemRepository) ListUnenriched(limit int) ([]*domain.Item, error) {
	var items []*domain.Item
	err := r.db.
		Where("enriched_at IS NULL").
		Order("received_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ClaimForEnrichment marks an item as taken by stamping enriched_at in a
// conditional update. It returns false when another worker got there
// first, making the pipeline idempotent under concurrent runs.
func (r *itemRepository) ClaimForEnrichment(itemID string) (bool, error) {
	now := time.Now().UTC()
	result := r.db.Model(&domain.Item{}).
		Where("id = ? AND enriched_at IS NULL", itemID).
		Update("enriched_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SaveEnrichment persists the item's enrichment fields together with any
// extracted deadlines in one transaction.
func (r *itemRepository) SaveEnrichment(item *domain.Item, deadlines []*domain.Deadline) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"summary":         item.Summary,
			"action_required": item.ActionRequired,
			"action_type":     item.ActionType,
			"priority_score":  item.PriorityScore,
			"category":        item.Category,
			"sentiment":       item.Sentiment,
			"confidence":      item.Confidence,
			"enriched_at":     item.EnrichedAt,
		}
		if err := tx.Model(&domain.Item{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return err
		}
		for _, deadline := range deadlines {
			if deadline.ID == "" {
				deadline.ID = uuid.New().String()
			}
			deadline.UserID = item.UserID
			deadline.ItemID = item.ID
			if err := tx.Create(deadline).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *itemRepository) TopUnread(userID string, since time.Time, limit int) ([]*domain.Item, error) {
	var items []*domain.Item
	err := r.db.
		Where("user_id = ? AND is_read = ? AND is_archived = ? AND received_at >= ?", userID, false, false, since).
		Order("priority_score DESC, received_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) EventsBetween(userID string, from, to time.Time) ([]*domain.Item, error) {
	var items []*domain.Item
	err := r.db.
		Where("user_id = ? AND item_type IN ? AND event_start >= ? AND event_start < ?",
			userID, []domain.ItemType{domain.ItemEvent, domain.ItemEventInvite}, from, to).
		Order("event_start ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Item{}).
		Where("user_id = ? AND is_read = ? AND is_archived = ?", userID, false, false).
		Count(&count).Error
	return count, err
}
